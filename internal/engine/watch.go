package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for writes to settle.
const DefaultDebounce = 150 * time.Millisecond

// WatchOptions controls Watch.
type WatchOptions struct {
	Generate GenerateOptions
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// OnResult is called after every regeneration attempt.
	OnResult func(*GenerateResult, error)
}

// Watch regenerates whenever an input header or the feature file changes.
// It blocks until ctx is cancelled. Directories are watched rather than
// files so that editors which replace files on save are handled.
func (e *Engine) Watch(ctx context.Context, opts WatchOptions) error {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	tracked := make(map[string]bool)
	dirs := make(map[string]bool)
	track := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		tracked[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			return nil
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		return nil
	}

	for _, t := range e.targets {
		if err := track(t.Input); err != nil {
			return err
		}
	}
	if err := track(e.cfg.FeaturesFile); err != nil {
		return err
	}
	featuresAbs, _ := filepath.Abs(e.cfg.FeaturesFile)

	e.logger.Info("watching for changes", "files", len(tracked), "directories", len(dirs))

	var (
		timer          *time.Timer
		timerC         <-chan time.Time
		reloadFeatures bool
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !tracked[name] {
				continue
			}
			if name == featuresAbs {
				reloadFeatures = true
			}
			e.logger.Debug("change detected", "file", name, "op", event.Op.String())

			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			res, err := e.regenerate(ctx, reloadFeatures, opts.Generate)
			reloadFeatures = false
			if err != nil {
				e.logger.Error("regeneration failed", "error", err)
			}
			if opts.OnResult != nil {
				opts.OnResult(res, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Warn("watcher error", "error", err)
		}
	}
}

func (e *Engine) regenerate(ctx context.Context, reload bool, opts GenerateOptions) (*GenerateResult, error) {
	if reload {
		if err := e.reloadFeatures(); err != nil {
			return nil, fmt.Errorf("failed to reload features: %w", err)
		}
	}
	return e.Generate(ctx, opts)
}
