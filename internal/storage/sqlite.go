package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/disamee/agriculture-digest-bot/internal/digest"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sent_articles (
	key     TEXT PRIMARY KEY,
	seen_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sent_articles_seen_at ON sent_articles(seen_at);

CREATE TABLE IF NOT EXISTS digest_runs (
	id            TEXT PRIMARY KEY,
	started_at    INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	fetched       INTEGER NOT NULL,
	relevant      INTEGER NOT NULL,
	delivered     INTEGER NOT NULL,
	rank_strategy TEXT,
	status        TEXT NOT NULL,
	error         TEXT
);
`

// SQLiteStore keeps history in an embedded SQLite database. The driver is
// pure Go, so the binary stays cgo-free.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db, ttl: ttl}, nil
}

func (s *SQLiteStore) Seen(ctx context.Context, key string) (bool, error) {
	cutoff := int64(0)
	if s.ttl > 0 {
		cutoff = time.Now().Add(-s.ttl).Unix()
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sent_articles WHERE key = ? AND seen_at > ?`,
		hashKey(key), cutoff,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying sent articles: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) MarkSeen(ctx context.Context, key string, seenAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sent_articles (key, seen_at) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET seen_at = excluded.seen_at`,
		hashKey(key), seenAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording sent article: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, rec digest.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO digest_runs
		 (id, started_at, duration_ms, fetched, relevant, delivered, rank_strategy, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.Unix(), rec.Duration.Milliseconds(),
		rec.Fetched, rec.Relevant, rec.Delivered,
		rec.RankStrategy, rec.Status, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("recording digest run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).Unix()
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sent_articles WHERE seen_at < ?`, cutoff,
	)
	if err != nil {
		return fmt.Errorf("pruning sent articles: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
