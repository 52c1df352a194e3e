package storage

import (
	"errors"
	"time"
)

// Common errors
var (
	// ErrNotFound is returned when a resource is not found in the store
	ErrNotFound = errors.New("resource not found")
)

// BindingSource records who created a binding.
type BindingSource string

// Binding sources. The values match documents written by the app side.
const (
	SourceChatBot BindingSource = "line_bot"
	SourceApp     BindingSource = "app"
)

// Binding associates a LINE user with an app account. AccountID stays empty
// until the app side claims the binding.
type Binding struct {
	ID           string        `json:"id" bson:"_id"`
	AccountID    string        `json:"app_user_id,omitempty" bson:"appUserId"`
	LineUserID   string        `json:"line_user_id" bson:"lineUserId"`
	BoundAt      time.Time     `json:"bound_at" bson:"boundAt"`
	LastActiveAt time.Time     `json:"last_active_at" bson:"lastActiveAt"`
	Source       BindingSource `json:"source" bson:"source"`
}

// Account is the app-side user record. This service only reads it;
// SaveAccount exists for seeding and tests.
type Account struct {
	ID          string    `json:"id" bson:"_id"`
	LineUserID  string    `json:"line_user_id,omitempty" bson:"lineUserId,omitempty"`
	DisplayName string    `json:"display_name,omitempty" bson:"displayName,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero" bson:"createdAt,omitempty"` // zero when unknown
}

// Reminder is a daily medicine-taking instruction owned by an account.
type Reminder struct {
	ID           string `json:"id" bson:"_id"`
	AccountID    string `json:"account_id" bson:"userId"`
	Hour         int    `json:"hour" bson:"hour"`
	Minute       int    `json:"minute" bson:"minute"`
	MedicineName string `json:"medicine_name" bson:"medicineName"`
	Dosage       string `json:"dosage" bson:"dosage"`
}

// Valid reports whether the clock fields are in range.
func (r Reminder) Valid() bool {
	return r.Hour >= 0 && r.Hour <= 23 && r.Minute >= 0 && r.Minute <= 59
}

// MedicineRecord is an append-only log entry of a dose taken.
// Date is YYYY-MM-DD and Time is HH:MM, both in the service time zone.
type MedicineRecord struct {
	ID           string    `json:"id" bson:"_id"`
	AccountID    string    `json:"account_id" bson:"userId"`
	MedicineName string    `json:"medicine_name" bson:"medicineName"`
	Dosage       string    `json:"dosage" bson:"dosage"`
	Date         string    `json:"date" bson:"date"`
	Time         string    `json:"time,omitempty" bson:"time,omitempty"`
	Notes        string    `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at" bson:"createdAt"`
}
