// Package storage persists delivered-article history and digest run
// records. Three backends share one behavior: a JSON file for simple
// deployments, SQLite for single-node persistence, PostgreSQL for hosted
// environments.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/disamee/agriculture-digest-bot/internal/digest"
)

// Store is a digest.History that owns resources needing shutdown.
type Store interface {
	digest.History
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config selects and tunes a history backend. A zero TTL keeps entries
// forever; expiry is then the caller's Cleanup schedule alone.
type Config struct {
	Backend     string
	FilePath    string
	SQLitePath  string
	PostgresURL string
	TTL         time.Duration
}

// Open builds the configured history backend.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		path := cfg.FilePath
		if path == "" {
			path = "sent_news.json"
		}
		return NewFileStore(path, cfg.TTL)
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = "digest.db"
		}
		return NewSQLiteStore(path, cfg.TTL)
	case BackendPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres history backend needs a connection string")
		}
		return NewPostgresStore(cfg.PostgresURL, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// hashKey compacts an article key (link or content hash) into a
// fixed-width storage key.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
