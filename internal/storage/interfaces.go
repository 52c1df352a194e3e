// Package storage provides repository interfaces for data access abstraction.
// Two backends implement them: SQLite (DB) and MongoDB (MongoStore).
// Unavailable stands in when neither could be opened.
package storage

import (
	"context"
	"time"
)

// BindingRepository defines the interface for binding data operations.
type BindingRepository interface {
	// GetBinding returns ErrNotFound when the LINE user has never been seen.
	GetBinding(ctx context.Context, lineUserID string) (*Binding, error)

	// InsertBinding creates a binding. If one already exists for the LINE
	// user, only its last-active time is advanced. Either way binding is
	// updated to the stored values.
	InsertBinding(ctx context.Context, binding *Binding) error

	// TouchBinding advances last-active time. It never moves it backwards.
	TouchBinding(ctx context.Context, lineUserID string, at time.Time) error

	CountBindings(ctx context.Context) (int, error)
}

// AccountRepository defines the interface for account data operations.
type AccountRepository interface {
	// FindAccountByLineUserID looks an account up by its LINE user reference.
	// Returns ErrNotFound when no account references the user.
	FindAccountByLineUserID(ctx context.Context, lineUserID string) (*Account, error)
	SaveAccount(ctx context.Context, account *Account) error
}

// ReminderRepository defines the interface for reminder data operations.
type ReminderRepository interface {
	// ListReminders returns the account's reminders ordered by hour, minute.
	ListReminders(ctx context.Context, accountID string) ([]Reminder, error)
	GetReminder(ctx context.Context, accountID, reminderID string) (*Reminder, error)
	SaveReminder(ctx context.Context, reminder *Reminder) error
	CountReminders(ctx context.Context, accountID string) (int, error)
}

// RecordRepository defines the interface for medicine record operations.
type RecordRepository interface {
	AppendRecord(ctx context.Context, record *MedicineRecord) error

	// RecentRecords returns up to limit records, newest date first and
	// newest creation first within a date.
	RecentRecords(ctx context.Context, accountID string, limit int) ([]MedicineRecord, error)
	CountRecords(ctx context.Context, accountID string) (int, error)
}

// HealthRepository defines the interface for health check operations.
type HealthRepository interface {
	// Ping verifies the store connection is alive.
	Ping(ctx context.Context) error
}

// Store is the aggregate interface that combines all repository interfaces.
type Store interface {
	BindingRepository
	AccountRepository
	ReminderRepository
	RecordRepository
	HealthRepository

	// Driver names the backend ("sqlite", "mongo", or "unavailable").
	Driver() string
	Close() error
}

// MetricsRecorder receives per-operation store timings.
type MetricsRecorder interface {
	RecordStoreOp(operation, status string, duration float64)
}

// Ensure the backends implement Store at compile time.
var (
	_ Store = (*DB)(nil)
	_ Store = (*MongoStore)(nil)
	_ Store = (*Unavailable)(nil)
)
