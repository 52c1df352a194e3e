package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the remote log queue.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type queuedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// logQueue is shared by an AsyncHandler and all handlers derived from it.
type logQueue struct {
	ch           chan queuedRecord
	flushTimeout time.Duration
	closed       atomic.Bool
	dropped      atomic.Uint64
	wg           sync.WaitGroup
}

func newLogQueue(opts AsyncOptions) *logQueue {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultAsyncBufferSize
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultAsyncFlushTimeout
	}
	q := &logQueue{
		ch:           make(chan queuedRecord, opts.BufferSize),
		flushTimeout: opts.FlushTimeout,
	}
	q.wg.Go(func() {
		for rec := range q.ch {
			_ = rec.handler.Handle(rec.ctx, rec.record)
		}
	})
	return q
}

// push never blocks; a full queue drops the record.
func (q *logQueue) push(rec queuedRecord) {
	if q.closed.Load() {
		return
	}
	select {
	case q.ch <- rec:
	default:
		q.dropped.Add(1)
	}
}

func (q *logQueue) drain(ctx context.Context) error {
	if q.closed.Swap(true) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.flushTimeout)
		defer cancel()
	}
	close(q.ch)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncHandler queues records for a slow handler (remote shipping) so that
// logging never blocks event dispatch.
type AsyncHandler struct {
	queue   *logQueue
	handler slog.Handler
}

// NewAsyncHandler starts the queue worker for handler.
func NewAsyncHandler(handler slog.Handler, opts AsyncOptions) *AsyncHandler {
	return &AsyncHandler{queue: newLogQueue(opts), handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle enqueues a clone of r. The context is detached from cancellation
// because the record is handled after the caller returns.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.handler.Enabled(ctx, r.Level) {
		return nil
	}
	h.queue.push(queuedRecord{ctx: context.WithoutCancel(ctx), record: r.Clone(), handler: h.handler})
	return nil
}

// WithAttrs shares the queue with the derived handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{queue: h.queue, handler: h.handler.WithAttrs(attrs)}
}

// WithGroup shares the queue with the derived handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{queue: h.queue, handler: h.handler.WithGroup(name)}
}

// Dropped reports how many records were discarded because the queue was full.
func (h *AsyncHandler) Dropped() uint64 {
	return h.queue.dropped.Load()
}

// Shutdown flushes queued records, bounded by ctx or the flush timeout.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.queue == nil {
		return nil
	}
	return h.queue.drain(ctx)
}
