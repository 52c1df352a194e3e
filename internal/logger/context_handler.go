package logger

import (
	"context"
	"log/slog"

	"github.com/garyellow/medreminder-linebot-go/internal/ctxutil"
)

// ContextHandler adds user_id, chat_id, request_id and account_id from the
// context to every record before passing it to the wrapped handler. Callers
// must use the *Context logging variants for the values to appear.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler wraps handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enriches r and delegates.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if userID := ctxutil.GetUserID(ctx); userID != "" {
		r.AddAttrs(slog.String("user_id", userID))
	}
	if chatID := ctxutil.GetChatID(ctx); chatID != "" {
		r.AddAttrs(slog.String("chat_id", chatID))
	}
	if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	if accountID := ctxutil.GetAccountID(ctx); accountID != "" {
		r.AddAttrs(slog.String("account_id", accountID))
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a ContextHandler over handler.WithAttrs(attrs).
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a ContextHandler over handler.WithGroup(name).
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
