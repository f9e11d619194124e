package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/disamee/agriculture-digest-bot/internal/digest"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sent_articles (
	key     VARCHAR(64) PRIMARY KEY,
	seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sent_articles_seen_at ON sent_articles(seen_at);

CREATE TABLE IF NOT EXISTS digest_runs (
	id            UUID PRIMARY KEY,
	started_at    TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL,
	fetched       INTEGER NOT NULL,
	relevant      INTEGER NOT NULL,
	delivered     INTEGER NOT NULL,
	rank_strategy VARCHAR(50),
	status        VARCHAR(20) NOT NULL,
	error         TEXT
);
`

// PostgresStore keeps history in PostgreSQL, for deployments where the bot
// runs on a platform with an attached database.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

// NewPostgresStore connects to the database, verifies the connection and
// ensures the schema exists.
func NewPostgresStore(connStr string, ttl time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating postgres schema: %w", err)
	}

	return &PostgresStore{db: db, ttl: ttl}, nil
}

func (s *PostgresStore) Seen(ctx context.Context, key string) (bool, error) {
	cutoff := time.Time{}
	if s.ttl > 0 {
		cutoff = time.Now().Add(-s.ttl)
	}

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sent_articles WHERE key = $1 AND seen_at > $2`,
		hashKey(key), cutoff,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying sent articles: %w", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) MarkSeen(ctx context.Context, key string, seenAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sent_articles (key, seen_at) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET seen_at = EXCLUDED.seen_at`,
		hashKey(key), seenAt,
	)
	if err != nil {
		return fmt.Errorf("recording sent article: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, rec digest.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO digest_runs
		 (id, started_at, duration_ms, fetched, relevant, delivered, rank_strategy, status, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.StartedAt, rec.Duration.Milliseconds(),
		rec.Fetched, rec.Relevant, rec.Delivered,
		rec.RankStrategy, rec.Status, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("recording digest run: %w", err)
	}
	return nil
}

func (s *PostgresStore) Cleanup(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sent_articles WHERE seen_at < $1`, cutoff,
	)
	if err != nil {
		return fmt.Errorf("pruning sent articles: %w", err)
	}
	if removed, err := res.RowsAffected(); err == nil && removed > 0 {
		slog.Debug("pruned sent articles", "removed", removed)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
