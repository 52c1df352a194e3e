package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// GetBinding retrieves the binding for a LINE user.
func (db *DB) GetBinding(ctx context.Context, lineUserID string) (*Binding, error) {
	query := `
		SELECT id, COALESCE(app_user_id, ''), line_user_id, bound_at, last_active_at, source
		FROM bindings WHERE line_user_id = ?
	`

	start := time.Now()
	var b Binding
	var boundAt, lastActive int64
	err := db.reader.QueryRowContext(ctx, query, lineUserID).Scan(
		&b.ID,
		&b.AccountID,
		&b.LineUserID,
		&boundAt,
		&lastActive,
		&b.Source,
	)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	if err = db.observe(ctx, "GetBinding", start, err); err != nil {
		return nil, err
	}

	b.BoundAt = time.UnixMilli(boundAt)
	b.LastActiveAt = time.UnixMilli(lastActive)
	return &b, nil
}

// InsertBinding creates a binding. A concurrent insert for the same LINE
// user collapses into a last-active refresh, so at most one row exists.
// b is overwritten with the stored row, which keeps the winner's ID and
// bound_at when the insert lost a race.
func (db *DB) InsertBinding(ctx context.Context, b *Binding) error {
	query := `
		INSERT INTO bindings (id, line_user_id, app_user_id, bound_at, last_active_at, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(line_user_id) DO UPDATE SET
			last_active_at = MAX(bindings.last_active_at, excluded.last_active_at)
		RETURNING id, COALESCE(app_user_id, ''), bound_at, last_active_at, source
	`
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	start := time.Now()
	var boundAt, lastActive int64
	err := db.writer.QueryRowContext(ctx, query,
		b.ID,
		b.LineUserID,
		nullString(b.AccountID),
		b.BoundAt.UnixMilli(),
		b.LastActiveAt.UnixMilli(),
		string(b.Source),
	).Scan(&b.ID, &b.AccountID, &boundAt, &lastActive, &b.Source)
	if err = db.observe(ctx, "InsertBinding", start, err); err != nil {
		return err
	}

	b.BoundAt = time.UnixMilli(boundAt)
	b.LastActiveAt = time.UnixMilli(lastActive)
	return nil
}

// TouchBinding advances last_active_at, never moving it backwards.
func (db *DB) TouchBinding(ctx context.Context, lineUserID string, at time.Time) error {
	query := `UPDATE bindings SET last_active_at = MAX(last_active_at, ?) WHERE line_user_id = ?`

	start := time.Now()
	_, err := db.writer.ExecContext(ctx, query, at.UnixMilli(), lineUserID)
	return db.observe(ctx, "TouchBinding", start, err)
}

// CountBindings returns the total number of bindings.
func (db *DB) CountBindings(ctx context.Context) (int, error) {
	return db.count(ctx, "CountBindings", `SELECT COUNT(*) FROM bindings`)
}

// FindAccountByLineUserID returns the earliest account referencing the LINE user.
func (db *DB) FindAccountByLineUserID(ctx context.Context, lineUserID string) (*Account, error) {
	query := `
		SELECT id, COALESCE(line_user_id, ''), COALESCE(display_name, ''), created_at
		FROM accounts WHERE line_user_id = ?
		ORDER BY rowid LIMIT 1
	`

	start := time.Now()
	var (
		a         Account
		createdAt sql.NullInt64
	)
	err := db.reader.QueryRowContext(ctx, query, lineUserID).Scan(&a.ID, &a.LineUserID, &a.DisplayName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	if err = db.observe(ctx, "FindAccountByLineUserID", start, err); err != nil {
		return nil, err
	}

	if createdAt.Valid {
		a.CreatedAt = time.UnixMilli(createdAt.Int64)
	}
	return &a, nil
}

// SaveAccount inserts or updates an account.
func (db *DB) SaveAccount(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO accounts (id, line_user_id, display_name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			line_user_id = excluded.line_user_id,
			display_name = excluded.display_name,
			created_at = COALESCE(accounts.created_at, excluded.created_at)
	`
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	var createdAt sql.NullInt64
	if !a.CreatedAt.IsZero() {
		createdAt = sql.NullInt64{Int64: a.CreatedAt.UnixMilli(), Valid: true}
	}

	start := time.Now()
	_, err := db.writer.ExecContext(ctx, query, a.ID, nullString(a.LineUserID), nullString(a.DisplayName), createdAt)
	return db.observe(ctx, "SaveAccount", start, err)
}

// ListReminders returns an account's reminders ordered by time of day.
func (db *DB) ListReminders(ctx context.Context, accountID string) ([]Reminder, error) {
	query := `
		SELECT id, account_id, hour, minute, medicine_name, dosage
		FROM reminders WHERE account_id = ?
		ORDER BY hour, minute, id
	`

	start := time.Now()
	reminders, err := queryRows(ctx, db.reader, query, []any{accountID}, func(rows *sql.Rows) (Reminder, error) {
		var r Reminder
		err := rows.Scan(&r.ID, &r.AccountID, &r.Hour, &r.Minute, &r.MedicineName, &r.Dosage)
		return r, err
	})
	if err = db.observe(ctx, "ListReminders", start, err); err != nil {
		return nil, err
	}
	return reminders, nil
}

// GetReminder retrieves one reminder of an account.
func (db *DB) GetReminder(ctx context.Context, accountID, reminderID string) (*Reminder, error) {
	query := `
		SELECT id, account_id, hour, minute, medicine_name, dosage
		FROM reminders WHERE account_id = ? AND id = ?
	`

	start := time.Now()
	var r Reminder
	err := db.reader.QueryRowContext(ctx, query, accountID, reminderID).Scan(
		&r.ID, &r.AccountID, &r.Hour, &r.Minute, &r.MedicineName, &r.Dosage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
	}
	if err = db.observe(ctx, "GetReminder", start, err); err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveReminder inserts or updates a reminder.
func (db *DB) SaveReminder(ctx context.Context, r *Reminder) error {
	query := `
		INSERT INTO reminders (account_id, id, hour, minute, medicine_name, dosage)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, id) DO UPDATE SET
			hour = excluded.hour,
			minute = excluded.minute,
			medicine_name = excluded.medicine_name,
			dosage = excluded.dosage
	`
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	start := time.Now()
	_, err := db.writer.ExecContext(ctx, query, r.AccountID, r.ID, r.Hour, r.Minute, r.MedicineName, r.Dosage)
	return db.observe(ctx, "SaveReminder", start, err)
}

// CountReminders returns how many reminders an account has.
func (db *DB) CountReminders(ctx context.Context, accountID string) (int, error) {
	return db.count(ctx, "CountReminders", `SELECT COUNT(*) FROM reminders WHERE account_id = ?`, accountID)
}

// AppendRecord inserts a medicine record. Records are never updated.
func (db *DB) AppendRecord(ctx context.Context, rec *MedicineRecord) error {
	query := `
		INSERT INTO medicine_records (id, account_id, medicine_name, dosage, date, time, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	start := time.Now()
	_, err := db.writer.ExecContext(ctx, query,
		rec.ID,
		rec.AccountID,
		rec.MedicineName,
		rec.Dosage,
		rec.Date,
		nullString(rec.Time),
		nullString(rec.Notes),
		rec.CreatedAt.UnixMilli(),
	)
	return db.observe(ctx, "AppendRecord", start, err)
}

// RecentRecords returns the newest records of an account.
func (db *DB) RecentRecords(ctx context.Context, accountID string, limit int) ([]MedicineRecord, error) {
	query := `
		SELECT id, account_id, medicine_name, dosage, date, COALESCE(time, ''), COALESCE(notes, ''), created_at
		FROM medicine_records WHERE account_id = ?
		ORDER BY date DESC, created_at DESC
		LIMIT ?
	`

	start := time.Now()
	records, err := queryRows(ctx, db.reader, query, []any{accountID, limit}, func(rows *sql.Rows) (MedicineRecord, error) {
		var (
			rec       MedicineRecord
			createdAt int64
		)
		err := rows.Scan(&rec.ID, &rec.AccountID, &rec.MedicineName, &rec.Dosage, &rec.Date, &rec.Time, &rec.Notes, &createdAt)
		rec.CreatedAt = time.UnixMilli(createdAt)
		return rec, err
	})
	if err = db.observe(ctx, "RecentRecords", start, err); err != nil {
		return nil, err
	}
	return records, nil
}

// CountRecords returns how many medicine records an account has.
func (db *DB) CountRecords(ctx context.Context, accountID string) (int, error) {
	return db.count(ctx, "CountRecords", `SELECT COUNT(*) FROM medicine_records WHERE account_id = ?`, accountID)
}

func (db *DB) count(ctx context.Context, op, query string, args ...any) (int, error) {
	start := time.Now()
	var n int
	err := db.reader.QueryRowContext(ctx, query, args...).Scan(&n)
	if err = db.observe(ctx, op, start, err); err != nil {
		return 0, err
	}
	return n, nil
}

func queryRows[T any](ctx context.Context, conn *sql.DB, query string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
