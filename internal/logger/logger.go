// Package logger provides the structured JSON logger used across the bot.
// Records carry tracing values from ctxutil and can additionally be shipped
// to Better Stack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is the application logger.
type Logger struct {
	*slog.Logger
	level  slog.Level
	remote *AsyncHandler
}

// Options configures optional log sinks.
type Options struct {
	// BetterStackToken enables log shipping when non-empty.
	BetterStackToken    string
	BetterStackEndpoint string
	Async               AsyncOptions
}

// New creates a logger writing JSON to stdout.
func New(level string) *Logger {
	return NewWithOptions(level, os.Stdout, Options{})
}

// NewWithWriter creates a logger writing JSON to w.
func NewWithWriter(level string, w io.Writer) *Logger {
	return NewWithOptions(level, w, Options{})
}

// NewWithOptions creates a logger writing JSON to w and, when configured,
// forwarding the same records to Better Stack through an async queue.
func NewWithOptions(level string, w io.Writer, opts Options) *Logger {
	logLevel := ParseLevel(level)

	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       logLevel,
		ReplaceAttr: renameAttrs,
	})

	var remote *AsyncHandler
	if opts.BetterStackToken != "" {
		bs := slogbetterstack.Option{
			Level:    logLevel,
			Token:    opts.BetterStackToken,
			Endpoint: opts.BetterStackEndpoint,
		}.NewBetterstackHandler()
		remote = NewAsyncHandler(bs, opts.Async)
		handler = NewMultiHandler(handler, remote)
	}

	return &Logger{
		Logger: slog.New(NewContextHandler(handler)),
		level:  logLevel,
		remote: remote,
	}
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func renameAttrs(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.LevelKey:
		a.Value = slog.StringValue(levelName(a.Value.String()))
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

func levelName(s string) string {
	if s == "WARN" {
		return "warning"
	}
	return strings.ToLower(s)
}

// GetLevel returns the configured minimum level.
func (l *Logger) GetLevel() slog.Level {
	return l.level
}

func (l *Logger) derive(inner *slog.Logger) *Logger {
	return &Logger{Logger: inner, level: l.level, remote: l.remote}
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return l.derive(l.With("module", module))
}

// WithRequestID creates a new entry with request ID field
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.derive(l.With("request_id", requestID))
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return l.derive(l.With("error", err))
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(l.With(key, value))
}

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// RemoteDropped reports how many records the remote sink discarded because
// its queue was full.
func (l *Logger) RemoteDropped() uint64 {
	if l.remote == nil {
		return 0
	}
	return l.remote.Dropped()
}

// Shutdown drains queued remote records. Safe to call without a remote sink.
func (l *Logger) Shutdown(ctx context.Context) error {
	if l == nil || l.remote == nil {
		return nil
	}
	return l.remote.Shutdown(ctx)
}
