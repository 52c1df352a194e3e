package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	domerrors "github.com/garyellow/medreminder-linebot-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinding_InsertAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.GetBinding(ctx, "U1")
	require.ErrorIs(t, err, ErrNotFound)

	boundAt := time.UnixMilli(1_700_000_000_000)
	b := &Binding{LineUserID: "U1", BoundAt: boundAt, LastActiveAt: boundAt, Source: SourceChatBot}
	require.NoError(t, db.InsertBinding(ctx, b))
	assert.NotEmpty(t, b.ID, "insert assigns an ID")

	got, err := db.GetBinding(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Empty(t, got.AccountID)
	assert.Equal(t, SourceChatBot, got.Source)
	assert.True(t, got.BoundAt.Equal(boundAt))
	assert.True(t, got.LastActiveAt.Equal(boundAt))
}

func TestBinding_InsertConflictKeepsOneRow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)

	first := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, db.InsertBinding(ctx, &Binding{LineUserID: "U1", BoundAt: first, LastActiveAt: first, Source: SourceChatBot}))

	winner, err := db.GetBinding(ctx, "U1")
	require.NoError(t, err)

	later := first.Add(time.Minute)
	loser := &Binding{LineUserID: "U1", BoundAt: later, LastActiveAt: later, Source: SourceChatBot}
	require.NoError(t, db.InsertBinding(ctx, loser))
	assert.Equal(t, winner.ID, loser.ID, "loser sees the stored id")
	assert.True(t, loser.BoundAt.Equal(first), "loser sees the stored bound_at")
	assert.True(t, loser.LastActiveAt.Equal(later))

	n, err := db.CountBindings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := db.GetBinding(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, got.BoundAt.Equal(first), "bound_at is immutable")
	assert.True(t, got.LastActiveAt.Equal(later))
}

func TestBinding_TouchIsMonotonic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)

	base := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, db.InsertBinding(ctx, &Binding{LineUserID: "U1", BoundAt: base, LastActiveAt: base, Source: SourceChatBot}))

	require.NoError(t, db.TouchBinding(ctx, "U1", base.Add(time.Hour)))
	require.NoError(t, db.TouchBinding(ctx, "U1", base.Add(time.Minute)))

	got, err := db.GetBinding(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, got.LastActiveAt.Equal(base.Add(time.Hour)), "older touch must not move last_active_at back")

	// Unknown users are a no-op.
	require.NoError(t, db.TouchBinding(ctx, "U-unknown", base))
}

func TestBinding_ConcurrentInserts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			at := time.UnixMilli(1_700_000_000_000 + int64(i))
			_ = db.InsertBinding(ctx, &Binding{LineUserID: "U1", BoundAt: at, LastActiveAt: at, Source: SourceChatBot})
		})
	}
	wg.Wait()

	n, err := db.CountBindings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAccount_FindByLineUserID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)

	_, err := db.FindAccountByLineUserID(ctx, "U1")
	require.ErrorIs(t, err, ErrNotFound)

	created := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, db.SaveAccount(ctx, &Account{ID: "A1", LineUserID: "U1", CreatedAt: created}))
	require.NoError(t, db.SaveAccount(ctx, &Account{ID: "A2", LineUserID: "U1"}))
	require.NoError(t, db.SaveAccount(ctx, &Account{ID: "A3"}))

	got, err := db.FindAccountByLineUserID(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "A1", got.ID, "earliest account wins")
	assert.True(t, got.CreatedAt.Equal(created))

	require.NoError(t, db.SaveAccount(ctx, &Account{ID: "A4", LineUserID: "U4"}))
	got, err = db.FindAccountByLineUserID(ctx, "U4")
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.IsZero(), "missing created_at stays zero")
}

func TestReminders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.SaveAccount(ctx, &Account{ID: "A1", LineUserID: "U1"}))
	require.NoError(t, db.SaveAccount(ctx, &Account{ID: "A2", LineUserID: "U2"}))

	for _, r := range []Reminder{
		{ID: "R-night", AccountID: "A1", Hour: 21, Minute: 0, MedicineName: "Melatonin", Dosage: "3mg"},
		{ID: "R-morning", AccountID: "A1", Hour: 8, Minute: 30, MedicineName: "Aspirin", Dosage: "100mg"},
		{ID: "R-early", AccountID: "A1", Hour: 8, Minute: 5, MedicineName: "Vitamin D", Dosage: "1 tab"},
		{ID: "R-other", AccountID: "A2", Hour: 7, Minute: 0, MedicineName: "Other", Dosage: "1"},
	} {
		require.NoError(t, db.SaveReminder(ctx, &r))
	}

	list, err := db.ListReminders(ctx, "A1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"R-early", "R-morning", "R-night"}, []string{list[0].ID, list[1].ID, list[2].ID})

	got, err := db.GetReminder(ctx, "A1", "R-morning")
	require.NoError(t, err)
	assert.Equal(t, "Aspirin", got.MedicineName)
	assert.Equal(t, "100mg", got.Dosage)

	_, err = db.GetReminder(ctx, "A1", "R-other")
	require.ErrorIs(t, err, ErrNotFound, "reminders are scoped to their account")

	n, err := db.CountReminders(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	empty, err := db.ListReminders(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReminders_InvalidClockIsStoreError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.SaveAccount(ctx, &Account{ID: "A1"}))

	err := db.SaveReminder(ctx, &Reminder{AccountID: "A1", Hour: 24, Minute: 0, MedicineName: "x", Dosage: "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrStoreUnavailable)
}

func TestRecords_RecentOrdering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.SaveAccount(ctx, &Account{ID: "A1", LineUserID: "U1"}))

	base := time.UnixMilli(1_700_000_000_000)
	records := []MedicineRecord{
		{MedicineName: "old", Date: "2026-01-01", Time: "08:00", CreatedAt: base},
		{MedicineName: "new-first", Date: "2026-01-03", Time: "08:00", CreatedAt: base.Add(time.Minute)},
		{MedicineName: "new-second", Date: "2026-01-03", Time: "20:00", CreatedAt: base.Add(time.Hour)},
		{MedicineName: "mid", Date: "2026-01-02", Notes: "透過 LINE 記錄", CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range records {
		records[i].AccountID = "A1"
		records[i].Dosage = fmt.Sprintf("%d mg", i)
		require.NoError(t, db.AppendRecord(ctx, &records[i]))
		assert.NotEmpty(t, records[i].ID)
	}

	got, err := db.RecentRecords(ctx, "A1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "new-second", got[0].MedicineName)
	assert.Equal(t, "new-first", got[1].MedicineName)
	assert.Equal(t, "mid", got[2].MedicineName)
	assert.Empty(t, got[2].Time)
	assert.Equal(t, "透過 LINE 記錄", got[2].Notes)

	n, err := db.CountRecords(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestRecords_DuplicatesAllowed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.SaveAccount(ctx, &Account{ID: "A1"}))

	for range 2 {
		require.NoError(t, db.AppendRecord(ctx, &MedicineRecord{AccountID: "A1", MedicineName: "Aspirin", Dosage: "100mg", Date: "2026-10-19", Time: "08:00"}))
	}
	n, err := db.CountRecords(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
