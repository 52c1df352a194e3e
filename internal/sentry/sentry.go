// Package sentry wraps the Sentry SDK for error reporting. Every helper is
// a no-op until Initialize is called with a DSN.
package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/medreminder-linebot-go/internal/ctxutil"
)

// Config holds Sentry configuration.
type Config struct {
	DSN         string
	Environment string
	Release     string

	// SampleRate controls error sampling (0.0-1.0). Zero means 1.0.
	SampleRate float64
	Debug      bool
}

// Initialize sets up the Sentry SDK. An empty DSN disables reporting.
func Initialize(cfg Config) error {
	if cfg.DSN == "" {
		return nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

func hubFor(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub().Clone()
}

// scoped runs fn with a scope carrying the event's tracing values and tags.
func scoped(ctx context.Context, tags map[string]string, fn func(*sentry.Hub)) {
	if !IsEnabled() {
		return
	}
	hub := hubFor(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		if userID := ctxutil.GetUserID(ctx); userID != "" {
			scope.SetUser(sentry.User{ID: userID})
		}
		if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		fn(hub)
	})
}

// CaptureError reports err with the event's user and request ID attached.
func CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	scoped(ctx, tags, func(hub *sentry.Hub) {
		hub.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func CapturePanic(ctx context.Context, recovered any, tags map[string]string) {
	if recovered == nil {
		return
	}
	scoped(ctx, tags, func(hub *sentry.Hub) {
		hub.RecoverWithContext(ctx, recovered)
	})
}
