// Package ledger persists an append-only history of pipeline runs in a
// local SQLite database, one row per run.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded run.
type Entry struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	TrackCount int
	OutputDir  string
	Error      string
}

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    status TEXT NOT NULL,
    track_count INTEGER NOT NULL,
    output_dir TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// DefaultPath returns the per-user history database location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "mixloom", "runs.db"), nil
}

// Open initializes or connects to the history database at path, creating
// parent directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init ledger schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Record appends one run to the history.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (run_id, started_at, finished_at, status, track_count, output_dir, error)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.StartedAt.UTC().Format(time.RFC3339),
		entry.FinishedAt.UTC().Format(time.RFC3339),
		entry.Status,
		entry.TrackCount,
		entry.OutputDir,
		entry.Error,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", entry.RunID, err)
	}
	return nil
}

// List returns the most recent runs, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `
SELECT run_id, started_at, finished_at, status, track_count, output_dir, error
FROM runs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			started  string
			finished string
		)
		if err := rows.Scan(&entry.RunID, &started, &finished, &entry.Status, &entry.TrackCount, &entry.OutputDir, &entry.Error); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		entry.StartedAt, _ = time.Parse(time.RFC3339, started)
		entry.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
