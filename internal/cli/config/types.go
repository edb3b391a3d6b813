// Package config provides configuration management for the pyconfgen CLI.
package config

import (
	"github.com/leapstack-labs/pyconfgen/internal/catalog"
	"github.com/leapstack-labs/pyconfgen/internal/engine"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
)

// Config holds all CLI configuration options.
type Config struct {
	Features     string         `koanf:"features"`
	OutputDir    string         `koanf:"output_dir"`
	StatePath    string         `koanf:"state_path"`
	Jobs         int            `koanf:"jobs"`
	HeaderGuard  string         `koanf:"header_guard"`
	LogLevel     string         `koanf:"log_level"`
	OutputFormat string         `koanf:"output"`
	Verbose      bool           `koanf:"verbose"`
	Targets      []TargetConfig `koanf:"targets"`
	Catalog      *CatalogConfig `koanf:"catalog"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// TargetConfig is one entry of the targets list.
type TargetConfig struct {
	Set    string `koanf:"set" yaml:"set"`
	Input  string `koanf:"input" yaml:"input"`
	Output string `koanf:"output" yaml:"output,omitempty"`
}

// CatalogConfig configures the populate command.
type CatalogConfig struct {
	File     string   `koanf:"file" yaml:"file"`
	Input    string   `koanf:"input" yaml:"input"`
	Output   string   `koanf:"output" yaml:"output"`
	Extras   []string `koanf:"extras" yaml:"extras,omitempty"`
	Optional []string `koanf:"optional" yaml:"optional,omitempty"`
}

// Default configuration values.
const (
	DefaultFeatures  = "xpatch.yaml"
	DefaultOutputDir = "out"
	DefaultStateFile = ".pyconfgen/state.db"
	DefaultLogLevel  = "warn"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "pyconfgen.yaml"
	ConfigFileNameAlt = "pyconfgen.yml"
)

// EngineTargets converts the targets list for the engine.
func (c *Config) EngineTargets() []engine.Target {
	out := make([]engine.Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		set, err := platform.ParseConfigSet(t.Set)
		if err != nil {
			// Validate rejects these; keep the raw name so the engine reports it.
			set = platform.ConfigSet(t.Set)
		}
		out = append(out, engine.Target{Set: set, Input: t.Input, Output: t.Output})
	}
	return out
}

// EngineConfig returns the engine configuration for c.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		FeaturesFile: c.Features,
		OutputDir:    c.OutputDir,
		Targets:      c.EngineTargets(),
		StatePath:    c.StatePath,
		Jobs:         c.Jobs,
		HeaderGuard:  c.HeaderGuard,
	}
}

// CatalogOptions returns populate options from the catalog section.
// Nil lists fall back to the catalog package defaults.
func (c *Config) CatalogOptions() catalog.Options {
	opts := catalog.Options{
		Extras:   catalog.DefaultExtras,
		Optional: catalog.DefaultOptional,
		Jobs:     c.Jobs,
	}
	if c.Catalog == nil {
		return opts
	}
	opts.CatalogFile = c.Catalog.File
	opts.InputDir = c.Catalog.Input
	opts.OutputDir = c.Catalog.Output
	if c.Catalog.Extras != nil {
		opts.Extras = c.Catalog.Extras
	}
	if c.Catalog.Optional != nil {
		opts.Optional = c.Catalog.Optional
	}
	return opts
}
