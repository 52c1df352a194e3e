package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Timestamps are stored as Unix milliseconds.
func InitSchema(ctx context.Context, db *sql.DB) error {
	tables := []struct {
		name  string
		query string
	}{
		{"bindings", bindingsTable},
		{"accounts", accountsTable},
		{"reminders", remindersTable},
		{"medicine_records", recordsTable},
	}

	for _, t := range tables {
		if _, err := db.ExecContext(ctx, t.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}
	return nil
}

const bindingsTable = `
	CREATE TABLE IF NOT EXISTS bindings (
		id TEXT PRIMARY KEY,
		line_user_id TEXT NOT NULL UNIQUE,
		app_user_id TEXT,
		bound_at INTEGER NOT NULL,
		last_active_at INTEGER NOT NULL,
		source TEXT CHECK(source IN ('line_bot', 'app')) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_bindings_app_user_id ON bindings(app_user_id);
`

const accountsTable = `
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		line_user_id TEXT,
		display_name TEXT,
		created_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_line_user_id ON accounts(line_user_id);
`

const remindersTable = `
	CREATE TABLE IF NOT EXISTS reminders (
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		hour INTEGER NOT NULL CHECK(hour BETWEEN 0 AND 23),
		minute INTEGER NOT NULL CHECK(minute BETWEEN 0 AND 59),
		medicine_name TEXT NOT NULL,
		dosage TEXT NOT NULL,
		PRIMARY KEY (account_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_reminders_clock ON reminders(account_id, hour, minute);
`

const recordsTable = `
	CREATE TABLE IF NOT EXISTS medicine_records (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		medicine_name TEXT NOT NULL,
		dosage TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT,
		notes TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_recent ON medicine_records(account_id, date DESC, created_at DESC);
`
