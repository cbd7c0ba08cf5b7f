// Package store persists word-count snapshots per goal in SQLite. Only counts,
// methods and timestamps are stored; document content never is.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNoSnapshot is returned when a goal has no snapshots yet.
var ErrNoSnapshot = errors.New("no snapshot for goal")

// Snapshot is one recorded word count for a goal.
type Snapshot struct {
	ID        string    `json:"id"`
	GoalID    string    `json:"goalId"`
	SourceURL string    `json:"sourceUrl"`
	WordCount int       `json:"wordCount"`
	Method    string    `json:"method"`
	TakenAt   time.Time `json:"takenAt"`
}

// Store wraps a SQLite database handle.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	goal_id    TEXT NOT NULL,
	source_url TEXT NOT NULL,
	word_count INTEGER NOT NULL,
	method     TEXT NOT NULL,
	taken_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_goal ON snapshots(goal_id, taken_at);
`

// Open opens or creates the database at path. ":memory:" is accepted for
// tests and one-shot runs.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: empty database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveCount records a snapshot, filling ID and TakenAt when empty, and
// returns the stored value.
func (s *Store) SaveCount(ctx context.Context, snap Snapshot) (Snapshot, error) {
	if snap.GoalID == "" {
		return Snapshot{}, errors.New("store: snapshot without goal id")
	}
	if snap.WordCount < 0 {
		return Snapshot{}, fmt.Errorf("store: negative word count %d", snap.WordCount)
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now()
	}
	snap.TakenAt = snap.TakenAt.UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, goal_id, source_url, word_count, method, taken_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.GoalID, snap.SourceURL, snap.WordCount, snap.Method, snap.TakenAt.UnixMilli())
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return snap, nil
}

// Latest returns the most recent snapshot for goalID or ErrNoSnapshot.
func (s *Store) Latest(ctx context.Context, goalID string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, goal_id, source_url, word_count, method, taken_at FROM snapshots
		 WHERE goal_id = ? ORDER BY taken_at DESC, rowid DESC LIMIT 1`, goalID)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w %q", ErrNoSnapshot, goalID)
	}
	return snap, err
}

// History returns up to limit snapshots for goalID, newest first. A
// non-positive limit returns all of them.
func (s *Store) History(ctx context.Context, goalID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, goal_id, source_url, word_count, method, taken_at FROM snapshots
		 WHERE goal_id = ? ORDER BY taken_at DESC, rowid DESC LIMIT ?`, goalID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Delta returns current minus the latest stored count for goalID. ok is false
// when there is no previous snapshot, in which case delta equals current.
func (s *Store) Delta(ctx context.Context, goalID string, current int) (delta int, ok bool, err error) {
	prev, err := s.Latest(ctx, goalID)
	if errors.Is(err, ErrNoSnapshot) {
		return current, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return current - prev.WordCount, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r scanner) (Snapshot, error) {
	var (
		snap    Snapshot
		takenAt int64
	)
	if err := r.Scan(&snap.ID, &snap.GoalID, &snap.SourceURL, &snap.WordCount, &snap.Method, &takenAt); err != nil {
		return Snapshot{}, err
	}
	snap.TakenAt = time.UnixMilli(takenAt).UTC()
	return snap, nil
}
