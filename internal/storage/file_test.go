package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disamee/agriculture-digest-bot/internal/digest"
)

func newFileStore(t *testing.T, ttl time.Duration) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	s, err := NewFileStore(path, ttl)
	require.NoError(t, err)
	return s, path
}

func TestFileStoreSeenRoundtrip(t *testing.T) {
	s, _ := newFileStore(t, time.Hour)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "https://example.com/wheat")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkSeen(ctx, "https://example.com/wheat", time.Now()))

	seen, err = s.Seen(ctx, "https://example.com/wheat")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = s.Seen(ctx, "https://example.com/other")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestFileStoreTTLExpiry(t *testing.T) {
	s, _ := newFileStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "stale", time.Now().Add(-2*time.Hour)))

	seen, err := s.Seen(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, seen, "entries older than the TTL should not count as seen")
}

func TestFileStoreZeroTTLKeepsForever(t *testing.T) {
	s, _ := newFileStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "ancient", time.Now().Add(-100*24*time.Hour)))

	seen, err := s.Seen(ctx, "ancient")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	s, err := NewFileStore(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.MarkSeen(ctx, "https://example.com/wheat", time.Now()))
	require.NoError(t, s.RecordRun(ctx, digest.RunRecord{ID: "run-1", Status: "ok"}))
	require.NoError(t, s.Close())

	reopened, err := NewFileStore(path, time.Hour)
	require.NoError(t, err)

	seen, err := reopened.Seen(ctx, "https://example.com/wheat")
	require.NoError(t, err)
	assert.True(t, seen)

	runs := reopened.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestFileStoreDropsExpiredOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	ctx := context.Background()

	s, err := NewFileStore(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.MarkSeen(ctx, "stale", time.Now().Add(-2*time.Hour)))
	require.NoError(t, s.MarkSeen(ctx, "fresh", time.Now()))
	require.NoError(t, s.Close())

	reopened, err := NewFileStore(path, time.Hour)
	require.NoError(t, err)

	reopened.mu.Lock()
	entries := len(reopened.seen)
	reopened.mu.Unlock()
	assert.Equal(t, 1, entries, "expired entries should be pruned at load time")

	seen, err := reopened.Seen(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestFileStoreCleanup(t *testing.T) {
	s, _ := newFileStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.MarkSeen(ctx, "stale", time.Now().Add(-3*time.Hour)))
	require.NoError(t, s.MarkSeen(ctx, "fresh", time.Now()))
	require.NoError(t, s.Cleanup(ctx, time.Hour))

	seen, err := s.Seen(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = s.Seen(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestFileStoreCapsStoredRuns(t *testing.T) {
	s, _ := newFileStore(t, time.Hour)
	ctx := context.Background()

	for i := 0; i < maxStoredRuns+10; i++ {
		rec := digest.RunRecord{ID: fmt.Sprintf("run-%d", i), Status: "ok"}
		require.NoError(t, s.RecordRun(ctx, rec))
	}

	runs := s.Runs()
	require.Len(t, runs, maxStoredRuns)
	assert.Equal(t, "run-10", runs[0].ID, "oldest runs should be dropped first")
	assert.Equal(t, fmt.Sprintf("run-%d", maxStoredRuns+9), runs[len(runs)-1].ID)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")
	s, err := NewFileStore(path, time.Hour)
	require.NoError(t, err)

	seen, err := s.Seen(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := NewFileStore(path, time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading history file")
}
