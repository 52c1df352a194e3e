package binding

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/garyellow/medreminder-linebot-go/internal/metrics"
	"github.com/garyellow/medreminder-linebot-go/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, repo storage.BindingRepository) (*Store, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	s := NewStore(repo, m, logger.NewWithWriter("error", io.Discard))
	return s, m
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(context.Background(), filepath.Join(t.TempDir(), "binding.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// countingRepo counts writes made through it.
type countingRepo struct {
	storage.BindingRepository
	mu     sync.Mutex
	writes int
}

func (c *countingRepo) InsertBinding(ctx context.Context, b *storage.Binding) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.BindingRepository.InsertBinding(ctx, b)
}

func (c *countingRepo) TouchBinding(ctx context.Context, id string, at time.Time) error {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
	return c.BindingRepository.TouchBinding(ctx, id, at)
}

func TestEnsureBinding_Idempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &countingRepo{BindingRepository: openDB(t)}
	s, m := newTestStore(t, repo)

	clock := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return clock }

	first, ok := s.EnsureBinding(ctx, "U1")
	require.True(t, ok)
	assert.Equal(t, storage.SourceChatBot, first.Source)
	assert.Empty(t, first.AccountID)

	prev := first.LastActiveAt
	for i := range 5 {
		clock = clock.Add(time.Duration(i+1) * time.Second)
		b, ok := s.EnsureBinding(ctx, "U1")
		require.True(t, ok)
		assert.Equal(t, first.ID, b.ID)
		assert.True(t, b.BoundAt.Equal(first.BoundAt), "bound_at never changes")
		assert.False(t, b.LastActiveAt.Before(prev), "last_active_at is non-decreasing")
		prev = b.LastActiveAt
	}

	n, err := repo.CountBindings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 6, repo.writes, "exactly one write per call")

	stored, err := repo.GetBinding(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, stored.LastActiveAt.Equal(prev))

	assert.InDelta(t, 1, testutil.ToFloat64(m.BindingsTotal.WithLabelValues(OutcomeCreated)), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.BindingsTotal.WithLabelValues(OutcomeRefreshed)), 0)
}

func TestEnsureBinding_ClockGoingBackwards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)
	s, _ := newTestStore(t, db)

	clock := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return clock }
	_, ok := s.EnsureBinding(ctx, "U1")
	require.True(t, ok)

	s.now = func() time.Time { return clock.Add(-time.Hour) }
	b, ok := s.EnsureBinding(ctx, "U1")
	require.True(t, ok)
	assert.True(t, b.LastActiveAt.Equal(clock))

	stored, err := db.GetBinding(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, stored.LastActiveAt.Equal(clock))
}

func TestEnsureBinding_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)
	s, _ := newTestStore(t, db)

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			s.EnsureBinding(ctx, "U1")
		})
	}
	wg.Wait()

	n, err := db.CountBindings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "racing inserts converge to one binding")
}

// staleReadRepo misses existing rows on read, as a racing event would.
type staleReadRepo struct {
	storage.BindingRepository
}

func (staleReadRepo) GetBinding(context.Context, string) (*storage.Binding, error) {
	return nil, storage.ErrNotFound
}

func TestEnsureBinding_LostInsertRaceReturnsStoredRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openDB(t)

	boundAt := time.UnixMilli(1_700_000_000_000)
	winner := storage.Binding{LineUserID: "U1", BoundAt: boundAt, LastActiveAt: boundAt, Source: storage.SourceChatBot}
	require.NoError(t, db.InsertBinding(ctx, &winner))

	s, m := newTestStore(t, staleReadRepo{BindingRepository: db})
	clock := boundAt.Add(time.Minute)
	s.now = func() time.Time { return clock }

	b, ok := s.EnsureBinding(ctx, "U1")
	require.True(t, ok)
	assert.Equal(t, winner.ID, b.ID)
	assert.True(t, b.BoundAt.Equal(boundAt), "bound_at comes from the stored row")
	assert.True(t, b.LastActiveAt.Equal(clock))
	assert.InDelta(t, 1, testutil.ToFloat64(m.BindingsTotal.WithLabelValues(OutcomeRefreshed)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.BindingsTotal.WithLabelValues(OutcomeCreated)), 0)
}

func TestEnsureBinding_Degraded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, m := newTestStore(t, storage.NewUnavailable("sqlite", errors.New("disk I/O error")))
	b, ok := s.EnsureBinding(ctx, "U1")
	assert.False(t, ok)
	assert.Equal(t, storage.Binding{}, b)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BindingsTotal.WithLabelValues(OutcomeError)), 0)
}

func TestEnsureBinding_EmptyID(t *testing.T) {
	t.Parallel()
	repo := &countingRepo{BindingRepository: openDB(t)}
	s, _ := newTestStore(t, repo)

	_, ok := s.EnsureBinding(context.Background(), "")
	assert.False(t, ok)
	assert.Zero(t, repo.writes)
}
