package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/pyconfgen/internal/cli/output"
	"github.com/leapstack-labs/pyconfgen/internal/header"
	"github.com/leapstack-labs/pyconfgen/internal/logging"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
)

// Validate checks the settings every command depends on.
// Targets are checked here only for shape; the engine checks the rest.
func (c *Config) Validate() error {
	if !output.ValidMode(c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (expected auto, text, markdown or json)", c.OutputFormat)
	}
	if !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", c.LogLevel)
	}
	if c.Jobs < 0 {
		return errors.New("jobs must not be negative")
	}
	if err := (header.Options{Guard: c.HeaderGuard}).Validate(); err != nil {
		return fmt.Errorf("header_guard: %w", err)
	}

	for i, t := range c.Targets {
		if t.Set == "" {
			return fmt.Errorf("targets[%d]: set is required", i)
		}
		if _, err := platform.ParseConfigSet(t.Set); err != nil {
			return fmt.Errorf("targets[%d]: %w", i, err)
		}
		if t.Input == "" {
			return fmt.Errorf("targets[%d]: input is required", i)
		}
	}
	return nil
}
