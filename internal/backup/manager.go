package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/garyellow/medreminder-linebot-go/internal/logger"
)

const contentType = "application/zstd"

// Snapshotter writes a consistent copy of the live database to a path.
// *storage.DB satisfies it.
type Snapshotter interface {
	CreateSnapshot(ctx context.Context, path string) error
}

// ObjectStore is the object storage surface used by Manager.
// *Client satisfies it.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// Manager uploads and restores database snapshots under one object key.
type Manager struct {
	store   ObjectStore
	key     string
	tempDir string
	logger  *logger.Logger
}

// NewManager creates a manager. An empty tempDir uses os.TempDir().
func NewManager(store ObjectStore, key, tempDir string, log *logger.Logger) *Manager {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Manager{
		store:   store,
		key:     key,
		tempDir: tempDir,
		logger:  log.WithModule("backup"),
	}
}

// Key returns the object key backups are written to.
func (m *Manager) Key() string {
	return m.key
}

// Upload snapshots db, compresses it and uploads it. Returns the ETag.
func (m *Manager) Upload(ctx context.Context, db Snapshotter) (string, error) {
	start := time.Now()
	snapshotPath := filepath.Join(m.tempDir, fmt.Sprintf("snapshot_%d.db", start.UnixNano()))
	if err := db.CreateSnapshot(ctx, snapshotPath); err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(snapshotPath)

	compressedPath := snapshotPath + ".zst"
	if err := CompressFile(snapshotPath, compressedPath); err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}
	defer os.Remove(compressedPath)

	f, err := os.Open(compressedPath)
	if err != nil {
		return "", fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer f.Close()

	etag, err := m.store.Upload(ctx, m.key, f, contentType)
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	m.logger.WithField("key", m.key).
		WithField("etag", etag).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		InfoContext(ctx, "Backup uploaded")
	return etag, nil
}

// RestoreIfMissing downloads the latest backup into dbPath when no local
// database exists. It reports whether a restore happened; a missing remote
// backup is not an error.
func (m *Manager) RestoreIfMissing(ctx context.Context, dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat database: %w", err)
	}

	body, err := m.store.Download(ctx, m.key)
	if errors.Is(err, ErrNotFound) {
		m.logger.WithField("key", m.key).InfoContext(ctx, "No remote backup; starting with an empty database")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("download backup: %w", err)
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return false, fmt.Errorf("create database dir: %w", err)
	}

	// Decompress next to the target, then rename so a partial file never
	// looks like a database.
	tmpPath := dbPath + ".restore"
	if err := DecompressStream(body, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf("decompress backup: %w", err)
	}
	if err := os.Rename(tmpPath, dbPath); err != nil {
		_ = os.Remove(tmpPath)
		return false, fmt.Errorf("install backup: %w", err)
	}

	m.logger.WithField("key", m.key).InfoContext(ctx, "Database restored from backup")
	return true, nil
}
