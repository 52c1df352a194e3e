package bot

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// HandlerFunc runs a handler for a request.
type HandlerFunc func(ctx context.Context, h Handler, req Request) ([]messaging_api.MessageInterface, error)

// Middleware wraps a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// CallHandler is the innermost HandlerFunc.
func CallHandler(ctx context.Context, h Handler, req Request) ([]messaging_api.MessageInterface, error) {
	return h.Handle(ctx, req)
}

// Chain wraps final with mws. The first middleware is the outermost.
func Chain(final HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		final = mws[i](final)
	}
	return final
}

// PanicError is returned by RecoveryMiddleware when a handler panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}

// LoggingMiddleware logs handler execution with timing and result info.
func LoggingMiddleware(log *logger.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, h Handler, req Request) ([]messaging_api.MessageInterface, error) {
			start := time.Now()
			msgs, err := next(ctx, h, req)

			log.WithModule(h.Name()).
				WithField("verb", req.Token.Verb.String()).
				WithField("origin", req.Origin).
				WithField("duration_ms", time.Since(start).Milliseconds()).
				WithField("msg_count", len(msgs)).
				DebugContext(ctx, "Handler completed")

			return msgs, err
		}
	}
}

// MetricsMiddleware counts dispatched intents.
func MetricsMiddleware(m *metrics.Metrics) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, h Handler, req Request) ([]messaging_api.MessageInterface, error) {
			if m != nil {
				m.RecordIntent(req.Token.Verb.String(), req.Origin)
			}
			return next(ctx, h, req)
		}
	}
}

// RecoveryMiddleware turns a handler panic into a *PanicError.
func RecoveryMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, h Handler, req Request) (msgs []messaging_api.MessageInterface, err error) {
			defer func() {
				if r := recover(); r != nil {
					msgs = nil
					err = &PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			return next(ctx, h, req)
		}
	}
}
