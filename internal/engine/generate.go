package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/pyconfgen/internal/fsutil"
	"github.com/leapstack-labs/pyconfgen/internal/header"
	"github.com/leapstack-labs/pyconfgen/internal/state"
	"github.com/leapstack-labs/pyconfgen/internal/xpatch"
)

// GenerateOptions controls a Generate call.
type GenerateOptions struct {
	// Force regenerates every target even when its inputs are unchanged.
	Force bool
}

// TargetResult is the outcome for one target.
type TargetResult struct {
	Target  Target          `json:"target"`
	Skipped bool            `json:"skipped"`
	Changes []xpatch.Change `json:"changes,omitempty"`
}

// GenerateResult is the outcome of one Generate call.
type GenerateResult struct {
	RunID    string         `json:"run_id,omitempty"`
	Targets  []TargetResult `json:"targets"`
	Header   string         `json:"header"`
	Duration time.Duration  `json:"duration"`
}

// Generated returns how many targets were written.
func (r *GenerateResult) Generated() int {
	n := 0
	for _, t := range r.Targets {
		if !t.Skipped {
			n++
		}
	}
	return n
}

// Generate patches every target and writes the dispatch header.
func (e *Engine) Generate(ctx context.Context, opts GenerateOptions) (res *GenerateResult, err error) {
	start := time.Now()
	res = &GenerateResult{
		Targets: make([]TargetResult, len(e.targets)),
		Header:  e.HeaderPath(),
	}

	if e.store != nil {
		run, serr := e.store.StartRun(ctx, "generate")
		if serr != nil {
			return nil, serr
		}
		res.RunID = run.ID
		defer func() {
			if cerr := e.store.CompleteRun(context.WithoutCancel(ctx), run.ID, err); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	jobs := e.cfg.Jobs
	if jobs <= 0 {
		jobs = len(e.targets)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, t := range e.targets {
		g.Go(func() error {
			tr, err := e.generateTarget(gctx, res.RunID, t, opts.Force)
			if err != nil {
				return fmt.Errorf("target %s: %w", t.Set, err)
			}
			res.Targets[i] = *tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := e.writeHeader(ctx, res.RunID); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	e.logger.Info("generate complete",
		"generated", res.Generated(),
		"skipped", len(res.Targets)-res.Generated(),
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

func (e *Engine) generateTarget(ctx context.Context, runID string, t Target, force bool) (*TargetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputHash, err := fsutil.HashFile(t.Input)
	if err != nil {
		return nil, err
	}
	if inputHash == "" {
		return nil, fmt.Errorf("input header not found: %s", t.Input)
	}

	rules := e.features.For(t.Set)
	rulesHash := rules.Fingerprint()

	if !force && e.store != nil {
		fresh, err := e.isFresh(ctx, t.Output, inputHash, rulesHash)
		if err != nil {
			return nil, err
		}
		if fresh {
			e.logger.Debug("target up to date", "set", t.Set, "output", t.Output)
			return &TargetResult{Target: t, Skipped: true}, nil
		}
	}

	patched, err := xpatch.PatchFile(t.Input, t.Output, rules)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("target generated", "set", t.Set, "output", t.Output, "changes", len(patched.Changes))

	if e.store != nil {
		outputHash, err := fsutil.HashFile(t.Output)
		if err != nil {
			return nil, err
		}
		if err := e.store.RecordArtifact(ctx, &state.Artifact{
			Path:       t.Output,
			ConfigSet:  string(t.Set),
			Kind:       state.KindSetHeader,
			InputHash:  inputHash,
			RulesHash:  rulesHash,
			OutputHash: outputHash,
			RunID:      runID,
		}); err != nil {
			return nil, err
		}
	}

	return &TargetResult{Target: t, Changes: patched.Changes}, nil
}

func (e *Engine) isFresh(ctx context.Context, output, inputHash, rulesHash string) (bool, error) {
	art, err := e.store.GetArtifact(ctx, output)
	if err != nil || art == nil {
		return false, err
	}
	if art.InputHash != inputHash || art.RulesHash != rulesHash {
		return false, nil
	}
	outputHash, err := fsutil.HashFile(output)
	if err != nil {
		return false, err
	}
	return outputHash != "" && outputHash == art.OutputHash, nil
}

func (e *Engine) writeHeader(ctx context.Context, runID string) error {
	opts := header.Options{Guard: e.cfg.HeaderGuard}
	path := e.HeaderPath()
	if err := header.Write(path, opts); err != nil {
		return err
	}
	if e.store == nil {
		return nil
	}
	return e.store.RecordArtifact(ctx, &state.Artifact{
		Path:       path,
		Kind:       state.KindDispatchHeader,
		OutputHash: fsutil.HashBytes([]byte(header.String(opts))),
		RunID:      runID,
	})
}
