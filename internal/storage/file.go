package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/disamee/agriculture-digest-bot/internal/digest"
)

// maxStoredRuns bounds the run log kept in the JSON file.
const maxStoredRuns = 50

// FileStore keeps history in a single JSON file, rewritten on every
// mutation. Good enough for one bot instance on one machine.
type FileStore struct {
	path string
	ttl  time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
	runs []digest.RunRecord
}

type sentItem struct {
	Key    string    `json:"key"`
	SeenAt time.Time `json:"seen_at"`
}

type fileState struct {
	Sent []sentItem         `json:"sent"`
	Runs []digest.RunRecord `json:"runs,omitempty"`
}

// NewFileStore loads existing history from path, dropping entries already
// past the TTL. A missing file is an empty history, not an error.
func NewFileStore(path string, ttl time.Duration) (*FileStore, error) {
	s := &FileStore{
		path: path,
		ttl:  ttl,
		seen: make(map[string]time.Time),
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("loading history file: %w", err)
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var state fileState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}

	cutoff := time.Time{}
	if s.ttl > 0 {
		cutoff = time.Now().Add(-s.ttl)
	}
	for _, item := range state.Sent {
		if item.Key == "" {
			continue
		}
		if !cutoff.IsZero() && item.SeenAt.Before(cutoff) {
			continue
		}
		s.seen[item.Key] = item.SeenAt
	}
	s.runs = state.Runs
	return nil
}

func (s *FileStore) Seen(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seenAt, ok := s.seen[hashKey(key)]
	if !ok {
		return false, nil
	}
	if s.ttl > 0 && seenAt.Before(time.Now().Add(-s.ttl)) {
		return false, nil
	}
	return true, nil
}

func (s *FileStore) MarkSeen(_ context.Context, key string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[hashKey(key)] = seenAt
	return s.persistLocked()
}

func (s *FileStore) RecordRun(_ context.Context, rec digest.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, rec)
	if len(s.runs) > maxStoredRuns {
		s.runs = s.runs[len(s.runs)-maxStoredRuns:]
	}
	return s.persistLocked()
}

func (s *FileStore) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	for key, seenAt := range s.seen {
		if seenAt.Before(cutoff) {
			delete(s.seen, key)
		}
	}
	return s.persistLocked()
}

// Runs returns the stored run log, newest last.
func (s *FileStore) Runs() []digest.RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]digest.RunRecord, len(s.runs))
	copy(out, s.runs)
	return out
}

// Close flushes the current state one last time.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

func (s *FileStore) persistLocked() error {
	state := fileState{
		Sent: make([]sentItem, 0, len(s.seen)),
		Runs: s.runs,
	}
	for key, seenAt := range s.seen {
		state.Sent = append(state.Sent, sentItem{Key: key, SeenAt: seenAt})
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	return nil
}
