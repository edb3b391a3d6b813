package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps :memory: databases alive and serialises writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database path passed to Open.
func (s *SQLiteStore) Path() string {
	return s.path
}

func generateID() string {
	return uuid.New().String()
}

// --- Run operations ---

// StartRun inserts a running Run for command.
func (s *SQLiteStore) StartRun(ctx context.Context, command string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Command:   command,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Command, run.Status, run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run completed, or failed when runErr is non-nil.
func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, runErr error) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	status, msg := RunStatusCompleted, ""
	if runErr != nil {
		status, msg = RunStatusFailed, runErr.Error()
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC(), msg, runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// LatestRun returns the most recently started run, or nil if none.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var (
		run      Run
		finished sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, command, status, started_at, finished_at, error
		 FROM runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&run.ID, &run.Command, &run.Status, &run.StartedAt, &finished, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

// --- Artifact operations ---

// RecordArtifact inserts or replaces the artifact row for a.Path.
func (s *SQLiteStore) RecordArtifact(ctx context.Context, a *Artifact) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if a.GeneratedAt.IsZero() {
		a.GeneratedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (path, config_set, kind, input_hash, rules_hash, output_hash, run_id, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		   config_set = excluded.config_set,
		   kind = excluded.kind,
		   input_hash = excluded.input_hash,
		   rules_hash = excluded.rules_hash,
		   output_hash = excluded.output_hash,
		   run_id = excluded.run_id,
		   generated_at = excluded.generated_at`,
		a.Path, a.ConfigSet, a.Kind, a.InputHash, a.RulesHash, a.OutputHash, a.RunID, a.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to record artifact %s: %w", a.Path, err)
	}
	return nil
}

const artifactColumns = `path, config_set, kind, input_hash, rules_hash, output_hash, run_id, generated_at`

// GetArtifact returns the artifact recorded for path, or nil if none.
func (s *SQLiteStore) GetArtifact(ctx context.Context, path string) (*Artifact, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	a, err := scanArtifact(s.db.QueryRowContext(ctx,
		`SELECT `+artifactColumns+` FROM artifacts WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}
	return a, nil
}

// ListArtifacts returns all artifacts ordered by path.
func (s *SQLiteStore) ListArtifacts(ctx context.Context) ([]*Artifact, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+artifactColumns+` FROM artifacts ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (*Artifact, error) {
	var a Artifact
	if err := row.Scan(&a.Path, &a.ConfigSet, &a.Kind, &a.InputHash, &a.RulesHash, &a.OutputHash, &a.RunID, &a.GeneratedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
