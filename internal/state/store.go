// Package state records generation runs and the artifacts they wrote, so
// that later runs can skip targets whose inputs have not changed.
package state

import (
	"context"
	"time"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Artifact kinds.
const (
	KindSetHeader      = "set_header"
	KindDispatchHeader = "dispatch_header"
)

// Run is one invocation of a generating command.
type Run struct {
	ID         string     `json:"id"`
	Command    string     `json:"command"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Artifact is a file written by a run, keyed by path.
type Artifact struct {
	Path        string    `json:"path"`
	ConfigSet   string    `json:"config_set,omitempty"`
	Kind        string    `json:"kind"`
	InputHash   string    `json:"input_hash,omitempty"`
	RulesHash   string    `json:"rules_hash,omitempty"`
	OutputHash  string    `json:"output_hash"`
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Store is the persistence interface used by the engine.
type Store interface {
	StartRun(ctx context.Context, command string) (*Run, error)
	CompleteRun(ctx context.Context, runID string, runErr error) error
	LatestRun(ctx context.Context) (*Run, error)
	RecordArtifact(ctx context.Context, a *Artifact) error
	GetArtifact(ctx context.Context, path string) (*Artifact, error)
	ListArtifacts(ctx context.Context) ([]*Artifact, error)
	Close() error
}
