package storage

import (
	"context"
	"time"

	domerrors "github.com/garyellow/medreminder-linebot-go/internal/errors"
)

// Unavailable is the Store used when the configured backend failed to open.
// Every call fails with a StoreError naming the original cause, so handlers
// reply with the service-unavailable message instead of crashing.
type Unavailable struct {
	driver string
	cause  error
}

// NewUnavailable returns a Store that always fails with cause.
func NewUnavailable(driver string, cause error) *Unavailable {
	return &Unavailable{driver: driver, cause: cause}
}

// Cause returns the error that prevented the store from opening.
func (u *Unavailable) Cause() error {
	return u.cause
}

func (u *Unavailable) fail(op string) error {
	return &domerrors.StoreError{Backend: u.driver, Op: op, Err: u.cause}
}

// Driver implements Store.
func (u *Unavailable) Driver() string { return "unavailable" }

// Close implements Store.
func (u *Unavailable) Close() error { return nil }

func (u *Unavailable) Ping(context.Context) error { return u.fail("Ping") }

func (u *Unavailable) GetBinding(context.Context, string) (*Binding, error) {
	return nil, u.fail("GetBinding")
}

func (u *Unavailable) InsertBinding(context.Context, *Binding) error {
	return u.fail("InsertBinding")
}

func (u *Unavailable) TouchBinding(context.Context, string, time.Time) error {
	return u.fail("TouchBinding")
}

func (u *Unavailable) CountBindings(context.Context) (int, error) {
	return 0, u.fail("CountBindings")
}

func (u *Unavailable) FindAccountByLineUserID(context.Context, string) (*Account, error) {
	return nil, u.fail("FindAccountByLineUserID")
}

func (u *Unavailable) SaveAccount(context.Context, *Account) error {
	return u.fail("SaveAccount")
}

func (u *Unavailable) ListReminders(context.Context, string) ([]Reminder, error) {
	return nil, u.fail("ListReminders")
}

func (u *Unavailable) GetReminder(context.Context, string, string) (*Reminder, error) {
	return nil, u.fail("GetReminder")
}

func (u *Unavailable) SaveReminder(context.Context, *Reminder) error {
	return u.fail("SaveReminder")
}

func (u *Unavailable) CountReminders(context.Context, string) (int, error) {
	return 0, u.fail("CountReminders")
}

func (u *Unavailable) AppendRecord(context.Context, *MedicineRecord) error {
	return u.fail("AppendRecord")
}

func (u *Unavailable) RecentRecords(context.Context, string, int) ([]MedicineRecord, error) {
	return nil, u.fail("RecentRecords")
}

func (u *Unavailable) CountRecords(context.Context, string) (int, error) {
	return 0, u.fail("CountRecords")
}
