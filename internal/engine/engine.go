// Package engine runs the feature patcher for every configured
// configuration set, writes the dispatch header, and tracks what it wrote
// so that unchanged targets are skipped on the next run.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/pyconfgen/internal/header"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
	"github.com/leapstack-labs/pyconfgen/internal/state"
	"github.com/leapstack-labs/pyconfgen/internal/xpatch"
)

// ErrNoTargets is returned by New when the configuration lists no targets.
var ErrNoTargets = errors.New("no targets configured")

// Target is one configuration set to generate.
type Target struct {
	Set   platform.ConfigSet
	Input string
	// Output defaults to <OutputDir>/pyconfig_<set>.h.
	Output string
}

// Config holds engine configuration.
type Config struct {
	// FeaturesFile is the .ini or .yaml feature policy.
	FeaturesFile string
	// OutputDir receives the patched headers and the dispatch header.
	OutputDir string
	Targets   []Target
	// StatePath is the SQLite state database; empty disables tracking.
	StatePath string
	// Jobs bounds concurrent target generation; <= 0 means one per target.
	Jobs int
	// HeaderGuard optionally wraps the dispatch header in an include guard.
	HeaderGuard string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine orchestrates header generation.
type Engine struct {
	cfg      Config
	targets  []Target
	logger   *slog.Logger
	store    state.Store
	features *xpatch.Features
}

// New validates cfg, loads the feature file and opens the state store.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	targets, err := normaliseTargets(cfg)
	if err != nil {
		return nil, err
	}
	if err := (header.Options{Guard: cfg.HeaderGuard}).Validate(); err != nil {
		return nil, err
	}

	features, err := xpatch.LoadFeatures(cfg.FeaturesFile)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		targets:  targets,
		logger:   logger,
		features: features,
	}

	if cfg.StatePath != "" {
		store, err := openStore(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		e.store = store
	}

	logger.Debug("engine initialised",
		"targets", len(targets),
		"features", cfg.FeaturesFile,
		"output_dir", cfg.OutputDir,
		"state", cfg.StatePath)
	return e, nil
}

func openStore(path string) (*state.SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return store, nil
}

func normaliseTargets(cfg Config) ([]Target, error) {
	if len(cfg.Targets) == 0 {
		return nil, ErrNoTargets
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("output_dir is required")
	}

	seenSet := make(map[platform.ConfigSet]bool, len(cfg.Targets))
	seenOut := make(map[string]bool, len(cfg.Targets))
	inputs := make(map[string]bool, len(cfg.Targets))
	for _, t := range cfg.Targets {
		inputs[filepath.Clean(t.Input)] = true
	}

	out := make([]Target, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		set, err := platform.ParseConfigSet(string(t.Set))
		if err != nil {
			return nil, err
		}
		t.Set = set
		if t.Input == "" {
			return nil, fmt.Errorf("target %s: input is required", t.Set)
		}
		if seenSet[t.Set] {
			return nil, fmt.Errorf("target %s: configured more than once", t.Set)
		}
		seenSet[t.Set] = true

		if t.Output == "" {
			t.Output = filepath.Join(cfg.OutputDir, t.Set.Header())
		}
		t.Output = filepath.Clean(t.Output)
		if inputs[t.Output] {
			return nil, fmt.Errorf("target %s: output %s would overwrite an input", t.Set, t.Output)
		}
		if seenOut[t.Output] {
			return nil, fmt.Errorf("target %s: output %s is shared with another target", t.Set, t.Output)
		}
		seenOut[t.Output] = true

		out = append(out, t)
	}
	return out, nil
}

// Close releases the state store.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Targets returns the normalised targets.
func (e *Engine) Targets() []Target {
	return append([]Target(nil), e.targets...)
}

// Features returns the loaded feature policy.
func (e *Engine) Features() *xpatch.Features {
	return e.features
}

// HeaderPath is where the dispatch header is written.
func (e *Engine) HeaderPath() string {
	return filepath.Join(e.cfg.OutputDir, header.FileName)
}

func (e *Engine) reloadFeatures() error {
	f, err := xpatch.LoadFeatures(e.cfg.FeaturesFile)
	if err != nil {
		return err
	}
	e.features = f
	return nil
}
