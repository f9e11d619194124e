package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDefaultsToFileBackend(t *testing.T) {
	cfg := Config{FilePath: filepath.Join(t.TempDir(), "history.json")}

	store, err := Open(cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, (*FileStore)(nil), store)
}

func TestOpenSQLiteBackend(t *testing.T) {
	cfg := Config{
		Backend:    BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "digest.db"),
	}

	store, err := Open(cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, (*SQLiteStore)(nil), store)
}

func TestOpenPostgresRequiresURL(t *testing.T) {
	_, err := Open(Config{Backend: BackendPostgres})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection string")
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	_, err := Open(Config{Backend: "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown history backend")
}

func TestHashKey(t *testing.T) {
	a := hashKey("https://example.com/wheat")
	b := hashKey("https://example.com/wheat")
	c := hashKey("https://example.com/corn")

	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
