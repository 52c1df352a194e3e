// Package ratelimit throttles outbound Messaging API calls with a shared
// token bucket.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// WaitRecorder receives the time spent blocked in Wait. *metrics.Metrics
// satisfies it.
type WaitRecorder interface {
	RecordRateLimiterWait(limiterType string, duration float64)
}

// Limiter is a named token bucket. It is safe for concurrent use.
type Limiter struct {
	name     string
	limiter  *rate.Limiter
	recorder WaitRecorder
}

// New creates a limiter refilling rps tokens per second with a burst of
// twice that (at least one).
func New(name string, rps float64, recorder WaitRecorder) *Limiter {
	burst := max(int(rps*2), 1)
	return &Limiter{
		name:     name,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		recorder: recorder,
	}
}

// Allow consumes a token if one is available right now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	start := time.Now()
	err := l.limiter.Wait(ctx)
	if l.recorder != nil {
		l.recorder.RecordRateLimiterWait(l.name, time.Since(start).Seconds())
	}
	return err
}

// Name returns the limiter label used in metrics.
func (l *Limiter) Name() string {
	return l.name
}
