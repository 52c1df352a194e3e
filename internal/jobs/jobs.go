// Package jobs runs the periodic background work: the bindings gauge
// refresh and SQLite backups.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/backup"
	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/go-co-op/gocron/v2"
)

// Job names, used as metric labels.
const (
	JobBindingGauge = "binding_gauge"
	JobBackup       = "backup"
)

// BindingCounter counts persisted bindings. storage.Store satisfies it.
type BindingCounter interface {
	CountBindings(ctx context.Context) (int, error)
}

// Scheduler wraps a gocron scheduler with logging and job metrics.
type Scheduler struct {
	s       gocron.Scheduler
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// New creates a stopped scheduler. metrics may be nil.
func New(loc *time.Location, log *logger.Logger, m *metrics.Metrics) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{s: s, logger: log.WithModule("jobs"), metrics: m}, nil
}

// AddBindingGauge refreshes the bindings gauge every interval, starting now.
func (s *Scheduler) AddBindingGauge(counter BindingCounter, interval time.Duration) error {
	return s.add(JobBindingGauge, interval, true, func(ctx context.Context) error {
		return RefreshBindingGauge(ctx, counter, s.metrics)
	})
}

// AddBackup uploads a snapshot of db every interval. Each run is bounded
// by timeout.
func (s *Scheduler) AddBackup(mgr *backup.Manager, db backup.Snapshotter, interval, timeout time.Duration) error {
	return s.add(JobBackup, interval, false, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, err := mgr.Upload(ctx, db)
		return err
	})
}

func (s *Scheduler) add(name string, interval time.Duration, immediately bool, fn func(context.Context) error) error {
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.run(name, fn) }),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.logger.WithField("job", name).WithField("interval", interval.String()).Info("Job scheduled")
	return nil
}

func (s *Scheduler) run(name string, fn func(context.Context) error) {
	start := time.Now()
	status := "success"
	if err := fn(context.Background()); err != nil {
		status = "error"
		s.logger.WithError(err).WithField("job", name).Error("Job failed")
	} else {
		s.logger.WithField("job", name).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Debug("Job finished")
	}
	if s.metrics != nil {
		s.metrics.RecordJobRun(name, status)
	}
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.s.Start()
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.s.Shutdown()
}

// RefreshBindingGauge sets the bindings gauge from the store count.
func RefreshBindingGauge(ctx context.Context, counter BindingCounter, m *metrics.Metrics) error {
	n, err := counter.CountBindings(ctx)
	if err != nil {
		return fmt.Errorf("count bindings: %w", err)
	}
	if m != nil {
		m.SetBindingCount(n)
	}
	return nil
}
