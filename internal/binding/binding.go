// Package binding keeps the LINE user → app account binding fresh on every
// inbound event.
package binding

import (
	"context"
	"errors"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/google/uuid"
)

// Binding outcomes reported to metrics.
const (
	OutcomeCreated   = "created"
	OutcomeRefreshed = "refreshed"
	OutcomeError     = "error"
)

// Store ensures a binding exists for every chat identity that talks to the bot.
type Store struct {
	repo    storage.BindingRepository
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewStore creates a binding store. metrics may be nil.
func NewStore(repo storage.BindingRepository, m *metrics.Metrics, log *logger.Logger) *Store {
	return &Store{
		repo:    repo,
		metrics: m,
		logger:  log.WithModule("binding"),
		now:     time.Now,
	}
}

// EnsureBinding creates the binding for lineUserID on first contact and
// refreshes its last-active time afterwards. It issues exactly one write.
//
// It never returns an error: on store failure it logs and returns ok=false
// so the caller can keep dispatching the event.
func (s *Store) EnsureBinding(ctx context.Context, lineUserID string) (storage.Binding, bool) {
	if lineUserID == "" {
		return storage.Binding{}, false
	}
	now := s.now()

	existing, err := s.repo.GetBinding(ctx, lineUserID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		candidateID := uuid.NewString()
		b := storage.Binding{
			ID:           candidateID,
			LineUserID:   lineUserID,
			BoundAt:      now,
			LastActiveAt: now,
			Source:       storage.SourceChatBot,
		}
		if err := s.repo.InsertBinding(ctx, &b); err != nil {
			return s.degraded(ctx, lineUserID, "insert", err)
		}
		// A concurrent event may have created the row first; b now holds it.
		if b.ID != candidateID {
			s.record(OutcomeRefreshed)
			return b, true
		}
		s.record(OutcomeCreated)
		s.logger.WithField("binding_id", b.ID).InfoContext(ctx, "Created binding for new LINE user")
		return b, true

	case err != nil:
		return s.degraded(ctx, lineUserID, "lookup", err)
	}

	if err := s.repo.TouchBinding(ctx, lineUserID, now); err != nil {
		return s.degraded(ctx, lineUserID, "touch", err)
	}
	if now.After(existing.LastActiveAt) {
		existing.LastActiveAt = now
	}
	s.record(OutcomeRefreshed)
	return *existing, true
}

func (s *Store) degraded(ctx context.Context, lineUserID, step string, err error) (storage.Binding, bool) {
	s.record(OutcomeError)
	s.logger.WithError(err).
		WithField("line_user_id", lineUserID).
		WithField("step", step).
		WarnContext(ctx, "Binding unavailable, continuing without it")
	return storage.Binding{}, false
}

func (s *Store) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordBinding(outcome)
	}
}
