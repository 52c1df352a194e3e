package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink down") }

// recordingHandler counts handled records; safe for concurrent use.
type recordingHandler struct {
	mu    sync.Mutex
	count int
	level slog.Level
}

func (h *recordingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }
func (h *recordingHandler) Handle(context.Context, slog.Record) error {
	h.mu.Lock()
	h.count++
	h.mu.Unlock()
	return nil
}
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }
func (h *recordingHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func TestMultiHandler_FanOut(t *testing.T) {
	t.Parallel()

	var buf1, buf2 bytes.Buffer
	mh := NewMultiHandler(
		nil,
		slog.NewJSONHandler(&buf1, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&buf2, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if len(mh.handlers) != 2 {
		t.Fatalf("expected nil handlers to be filtered, got %d", len(mh.handlers))
	}

	log := slog.New(mh).With("module", "bot")
	log.Info("info record")
	log.Error("error record")

	if got := strings.Count(buf1.String(), "\n"); got != 2 {
		t.Errorf("debug sink got %d records, want 2", got)
	}
	if got := strings.Count(buf2.String(), "\n"); got != 1 {
		t.Errorf("error sink got %d records, want 1", got)
	}
	if !strings.Contains(buf2.String(), `"module":"bot"`) {
		t.Errorf("attrs not propagated: %s", buf2.String())
	}
}

func TestMultiHandler_JoinsErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	mh := NewMultiHandler(
		slog.NewJSONHandler(&buf, nil),
		failingHandler{slog.NewJSONHandler(&bytes.Buffer{}, nil)},
	)

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	if err := mh.Handle(context.Background(), r); err == nil {
		t.Error("expected joined error from failing handler")
	}
	if buf.Len() == 0 {
		t.Error("healthy handler should still receive the record")
	}
}

func TestAsyncHandler_FlushOnShutdown(t *testing.T) {
	t.Parallel()

	rec := &recordingHandler{level: slog.LevelInfo}
	ah := NewAsyncHandler(rec, AsyncOptions{BufferSize: 64})
	log := slog.New(ah)

	for range 10 {
		log.Info("queued")
	}
	log.Debug("filtered")

	if err := ah.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() = %v", err)
	}
	if got := rec.Count(); got != 10 {
		t.Errorf("handled %d records, want 10", got)
	}

	log.Info("after shutdown")
	if got := rec.Count(); got != 10 {
		t.Errorf("record accepted after shutdown")
	}
	if err := ah.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() = %v", err)
	}
}
