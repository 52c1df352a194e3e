// Package ctxutil carries per-event tracing values through context.Context.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	userIDKey    contextKey = "ctxutil.userID"
	chatIDKey    contextKey = "ctxutil.chatID"
	requestIDKey contextKey = "ctxutil.requestID"
	accountIDKey contextKey = "ctxutil.accountID"
)

// WithUserID stores the LINE user ID of the event sender.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the LINE user ID, or "" when absent.
func GetUserID(ctx context.Context) string {
	return stringValue(ctx, userIDKey)
}

// WithChatID stores the conversation ID (user, group or room).
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, chatIDKey, chatID)
}

// GetChatID returns the conversation ID, or "" when absent.
func GetChatID(ctx context.Context) string {
	return stringValue(ctx, chatIDKey)
}

// WithRequestID stores the webhook event ID used for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID returns the request ID and whether it was set.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// WithAccountID stores the resolved app-side account ID.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// GetAccountID returns the resolved account ID, or "" before resolution.
func GetAccountID(ctx context.Context) string {
	return stringValue(ctx, accountIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// PreserveTracing returns a fresh background context holding only the
// tracing values of ctx. Dispatch work started after the webhook response
// has been written must not inherit the request's cancellation.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if userID := GetUserID(ctx); userID != "" {
		newCtx = WithUserID(newCtx, userID)
	}
	if chatID := GetChatID(ctx); chatID != "" {
		newCtx = WithChatID(newCtx, chatID)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}
	if accountID := GetAccountID(ctx); accountID != "" {
		newCtx = WithAccountID(newCtx, accountID)
	}

	return newCtx
}
