package backup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/garyellow/medreminder-linebot-go/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *memStore) Upload(_ context.Context, key string, body io.Reader, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return "etag-1", nil
}

func (s *memStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fileSnapshotter struct {
	content string
	err     error
}

func (f fileSnapshotter) CreateSnapshot(_ context.Context, path string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(path, []byte(f.content), 0o600)
}

func newManager(t *testing.T, store ObjectStore) *Manager {
	t.Helper()
	return NewManager(store, "backups/medbot.db.zst", t.TempDir(), logger.NewWithWriter("error", io.Discard))
}

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	src := filepath.Join(dir, "src.db")
	dst := filepath.Join(dir, "src.db.zst")
	out := filepath.Join(dir, "out.db")

	data := strings.Repeat("medicine record row ", 5000)
	require.NoError(t, os.WriteFile(src, []byte(data), 0o600))
	require.NoError(t, CompressFile(src, dst))

	srcInfo, err := os.Stat(src)
	require.NoError(t, err)
	dstInfo, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Less(t, dstInfo.Size(), srcInfo.Size())

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, DecompressStream(f, out))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, data, string(got))
}

func TestUploadThenRestore(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	m := newManager(t, store)

	etag, err := m.Upload(context.Background(), fileSnapshotter{content: "sqlite bytes"})
	require.NoError(t, err)
	assert.Equal(t, "etag-1", etag)
	assert.Equal(t, "application/zstd", store.types[m.Key()])

	dbPath := filepath.Join(t.TempDir(), "data", "medbot.db")
	restored, err := m.RestoreIfMissing(context.Background(), dbPath)
	require.NoError(t, err)
	assert.True(t, restored)

	got, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, "sqlite bytes", string(got))

	// Temp files are cleaned up.
	entries, err := os.ReadDir(m.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRestoreIfMissing_KeepsExistingDatabase(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.objects["backups/medbot.db.zst"] = []byte("ignored")
	m := newManager(t, store)

	dbPath := filepath.Join(t.TempDir(), "medbot.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("local"), 0o600))

	restored, err := m.RestoreIfMissing(context.Background(), dbPath)
	require.NoError(t, err)
	assert.False(t, restored)

	got, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, "local", string(got))
}

func TestRestoreIfMissing_NoRemoteBackup(t *testing.T) {
	t.Parallel()
	m := newManager(t, newMemStore())

	dbPath := filepath.Join(t.TempDir(), "medbot.db")
	restored, err := m.RestoreIfMissing(context.Background(), dbPath)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.NoFileExists(t, dbPath)
}

func TestUpload_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		snap  fileSnapshotter
		store *memStore
	}{
		{"snapshot fails", fileSnapshotter{err: errors.New("disk full")}, newMemStore()},
		{"upload fails", fileSnapshotter{content: "x"}, &memStore{err: errors.New("403")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := newManager(t, tt.store)
			_, err := m.Upload(context.Background(), tt.snap)
			require.Error(t, err)
		})
	}
}

func TestConfigComplete(t *testing.T) {
	t.Parallel()
	assert.False(t, Config{}.Complete())
	assert.False(t, Config{Endpoint: "e", AccessKeyID: "a", SecretKey: "s"}.Complete())
	assert.True(t, Config{Endpoint: "e", AccessKeyID: "a", SecretKey: "s", Bucket: "b"}.Complete())
}
