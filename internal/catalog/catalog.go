// Package catalog copies the runtime sources listed in a JSON catalog into
// an output tree.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/pyconfgen/internal/fsutil"
)

// Defaults mirror the layout of a CPython source release.
var (
	DefaultExtras   = []string{"LICENSE"}
	DefaultOptional = []string{"PC/invalid_parameter_handler.c"}
)

// ErrBadEntry is returned for catalog entries that reduce to an empty path.
var ErrBadEntry = errors.New("bad catalog entry")

// Options configures Populate.
type Options struct {
	CatalogFile string
	InputDir    string
	OutputDir   string
	// Extras are appended to the catalog and used verbatim.
	Extras []string
	// Optional entries are skipped when the source file is missing.
	Optional []string
	// Jobs bounds concurrent copies; <= 0 means 4.
	Jobs   int
	Logger *slog.Logger
}

// Item is one resolved catalog entry.
type Item struct {
	Entry   string `json:"entry"`
	Path    string `json:"path"`
	Source  string `json:"source"`
	Dest    string `json:"dest"`
	Skipped bool   `json:"skipped,omitempty"`
}

// Result lists every entry in catalog order.
type Result struct {
	Items []Item `json:"items"`
}

// Copied returns the number of files copied.
func (r *Result) Copied() int {
	n := 0
	for _, it := range r.Items {
		if !it.Skipped {
			n++
		}
	}
	return n
}

// Skipped returns the number of optional entries skipped.
func (r *Result) Skipped() int {
	return len(r.Items) - r.Copied()
}

// Load reads a catalog file: a JSON array of paths.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller-controlled path
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var entries []string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return entries, nil
}

// RelPath maps a catalog entry to a path relative to the input tree by
// dropping its first two components ("Python-3.7.0/./Include/x.h" ->
// "Include/x.h").
func RelPath(entry string) (string, error) {
	bits := strings.Split(entry, "/")
	if len(bits) <= 2 {
		return "", fmt.Errorf("%w: '%s'", ErrBadEntry, entry)
	}
	rel := strings.Join(bits[2:], "/")
	if rel == "" {
		return "", fmt.Errorf("%w: '%s'", ErrBadEntry, entry)
	}
	return rel, nil
}

// Plan resolves entries plus extras into copy items without touching the
// file system. Every entry is validated before anything is copied.
func Plan(entries []string, opts Options) ([]Item, error) {
	extras := opts.Extras
	if extras == nil {
		extras = DefaultExtras
	}

	items := make([]Item, 0, len(entries)+len(extras))
	add := func(entry, rel string) {
		items = append(items, Item{
			Entry:  entry,
			Path:   rel,
			Source: filepath.Clean(filepath.Join(opts.InputDir, filepath.FromSlash(rel))),
			Dest:   filepath.Clean(filepath.Join(opts.OutputDir, filepath.FromSlash(rel))),
		})
	}

	for _, e := range entries {
		rel, err := RelPath(e)
		if err != nil {
			return nil, err
		}
		add(e, rel)
	}
	for _, e := range extras {
		add(e, e)
	}
	return items, nil
}

// Populate copies every catalog entry from InputDir to OutputDir.
func Populate(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	entries, err := Load(opts.CatalogFile)
	if err != nil {
		return nil, err
	}
	items, err := Plan(entries, opts)
	if err != nil {
		return nil, err
	}

	optional := opts.Optional
	if optional == nil {
		optional = DefaultOptional
	}
	skippable := make(map[string]struct{}, len(optional))
	for _, o := range optional {
		skippable[o] = struct{}{}
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i := range items {
		it := &items[i]
		if _, ok := skippable[it.Path]; ok && !fsutil.IsRegularFile(it.Source) {
			it.Skipped = true
			logger.Debug("skipping optional catalog entry", "path", it.Path)
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fsutil.CopyFile(it.Source, it.Dest); err != nil {
				return fmt.Errorf("failed to copy %s: %w", it.Path, err)
			}
			logger.Debug("copied", "path", it.Path, "src", it.Source, "dest", it.Dest)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Items: items}
	logger.Info("populate complete", "copied", res.Copied(), "skipped", res.Skipped())
	return res, nil
}
