package engine

import (
	"context"

	"github.com/leapstack-labs/pyconfgen/internal/fsutil"
	"github.com/leapstack-labs/pyconfgen/internal/header"
	"github.com/leapstack-labs/pyconfgen/internal/state"
)

// Freshness states reported by Status.
const (
	StateFresh     = "fresh"
	StateStale     = "stale"
	StateMissing   = "missing"
	StateUntracked = "untracked"
)

// ArtifactStatus describes one output file.
type ArtifactStatus struct {
	Set    string `json:"set,omitempty"`
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	State  string `json:"state"`
	Reason string `json:"reason,omitempty"`
}

// Status reports whether each output is up to date with its inputs.
// Without a state store, existing outputs are reported as untracked.
func (e *Engine) Status(ctx context.Context) ([]ArtifactStatus, error) {
	out := make([]ArtifactStatus, 0, len(e.targets)+1)

	for _, t := range e.targets {
		st := ArtifactStatus{Set: string(t.Set), Kind: state.KindSetHeader, Path: t.Output}

		inputHash, err := fsutil.HashFile(t.Input)
		if err != nil {
			return nil, err
		}
		if err := e.classify(ctx, &st, inputHash, e.features.For(t.Set).Fingerprint()); err != nil {
			return nil, err
		}
		out = append(out, st)
	}

	hs := ArtifactStatus{Kind: state.KindDispatchHeader, Path: e.HeaderPath()}
	want := fsutil.HashBytes([]byte(header.String(header.Options{Guard: e.cfg.HeaderGuard})))
	got, err := fsutil.HashFile(hs.Path)
	if err != nil {
		return nil, err
	}
	switch {
	case got == "":
		hs.State = StateMissing
	case got != want:
		hs.State, hs.Reason = StateStale, "content differs from the decision table"
	default:
		hs.State = StateFresh
	}
	out = append(out, hs)

	return out, nil
}

func (e *Engine) classify(ctx context.Context, st *ArtifactStatus, inputHash, rulesHash string) error {
	outputHash, err := fsutil.HashFile(st.Path)
	if err != nil {
		return err
	}
	if outputHash == "" {
		st.State = StateMissing
		return nil
	}
	if e.store == nil {
		st.State = StateUntracked
		return nil
	}

	art, err := e.store.GetArtifact(ctx, st.Path)
	if err != nil {
		return err
	}
	switch {
	case art == nil:
		st.State, st.Reason = StateUntracked, "not produced by a recorded run"
	case inputHash == "":
		st.State, st.Reason = StateStale, "input header missing"
	case art.InputHash != inputHash:
		st.State, st.Reason = StateStale, "input changed"
	case art.RulesHash != rulesHash:
		st.State, st.Reason = StateStale, "feature rules changed"
	case art.OutputHash != outputHash:
		st.State, st.Reason = StateStale, "output modified"
	default:
		st.State = StateFresh
	}
	return nil
}

// LatestRun returns the most recent recorded run. It returns nil when
// state tracking is disabled or nothing has run yet.
func (e *Engine) LatestRun(ctx context.Context) (*state.Run, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.LatestRun(ctx)
}
