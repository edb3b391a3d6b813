package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pyconfgen/internal/cli/config"
	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
	"github.com/leapstack-labs/pyconfgen/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cctx := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cctx.Cfg, cctx.Logger)
	if err != nil {
		return nil, nil, err
	}
	cctx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cctx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need the project file or state.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the loaded configuration, or defaults when the root
// command did not load one (commands run on their own in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Features:     config.DefaultFeatures,
		OutputDir:    config.DefaultOutputDir,
		StatePath:    config.DefaultStateFile,
		LogLevel:     config.DefaultLogLevel,
		OutputFormat: config.DefaultOutput,
	}
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	ec := cfg.EngineConfig()
	ec.Logger = logger

	eng, err := engine.New(ec)
	if errors.Is(err, engine.ErrNoTargets) {
		return nil, fmt.Errorf("%w\nHint: list targets in %s or run 'pyconfgen init'", err, config.ConfigFileName)
	}
	return eng, err
}
