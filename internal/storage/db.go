package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/config"
	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

const driverSQLite = "sqlite"

// DB is the SQLite backend. Writes go through a single-connection pool so
// SQLite never sees concurrent writers; reads use a separate pool.
type DB struct {
	writer  *sql.DB
	reader  *sql.DB
	path    string
	metrics MetricsRecorder
}

// New opens (creating if needed) the SQLite database at dbPath and
// initializes the schema.
func New(ctx context.Context, dbPath string) (*DB, error) {
	if dbPath == "" || dbPath == ":memory:" {
		return nil, errors.New("sqlite: a file path is required")
	}

	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	writer, err := openPool(ctx, dbPath, 1)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	if err := InitSchema(ctx, writer); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	reader, err := openPool(ctx, dbPath, 4)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}

	return &DB{
		writer: writer,
		reader: reader,
		path:   dbPath,
	}, nil
}

// openPool opens a connection pool with the pragmas applied per connection.
func openPool(ctx context.Context, dbPath string, maxOpen int) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)",
		dbPath, config.DatabaseBusyTimeout.Milliseconds(),
	)

	conn, err := sql.Open(driverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxOpen)
	conn.SetConnMaxLifetime(config.DatabaseConnMaxLifetime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// Close closes both connection pools.
func (db *DB) Close() error {
	return errors.Join(db.reader.Close(), db.writer.Close())
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Driver implements Store.
func (db *DB) Driver() string {
	return driverSQLite
}

// Ping verifies both pools can reach the database file.
func (db *DB) Ping(ctx context.Context) error {
	start := time.Now()
	err := errors.Join(db.reader.PingContext(ctx), db.writer.PingContext(ctx))
	return db.observe(ctx, "Ping", start, err)
}

// SetMetrics sets the metrics recorder for store operations.
func (db *DB) SetMetrics(recorder MetricsRecorder) {
	db.metrics = recorder
}

// CreateSnapshot writes a consistent copy of the database to path using
// VACUUM INTO. An existing file at path is replaced.
func (db *DB) CreateSnapshot(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale snapshot: %w", err)
	}
	start := time.Now()
	_, err := db.writer.ExecContext(ctx, "VACUUM INTO ?", path)
	return db.observe(ctx, "CreateSnapshot", start, err)
}

func (db *DB) observe(ctx context.Context, op string, start time.Time, err error) error {
	return observe(ctx, db.metrics, driverSQLite, op, start, err)
}
