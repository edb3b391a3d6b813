package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pyconfgen/internal/catalog"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
)

const projectYAML = `features: rules/xpatch.ini
output_dir: build/include
jobs: 2
targets:
  - set: linux_x86_64
    input: src/pyconfig_linux.h
  - set: x86
    input: src/pyconfig_linux.h
    output: custom/i686.h
catalog:
  file: catalog.json
  input: cpython
  output: dist
`

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0600))
	return dir
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("state", "", "")
	fs.String("log-level", "", "")
	fs.StringP("output", "o", "", "")
	fs.BoolP("verbose", "v", false, "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Empty(t, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, DefaultFeatures), cfg.Features)
	assert.Equal(t, filepath.Join(dir, DefaultOutputDir), cfg.OutputDir)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Empty(t, cfg.Targets)
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_File(t *testing.T) {
	ResetConfig()
	dir := writeProject(t, projectYAML)
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ConfigFileName), GetConfigFileUsed())
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "rules", "xpatch.ini"), cfg.Features)
	assert.Equal(t, filepath.Join(dir, "build", "include"), cfg.OutputDir)
	assert.Equal(t, 2, cfg.Jobs)

	require.Len(t, cfg.Targets, 2)
	assert.Equal(t, TargetConfig{Set: "linux_x86_64", Input: filepath.Join(dir, "src", "pyconfig_linux.h")}, cfg.Targets[0])
	assert.Equal(t, filepath.Join(dir, "custom", "i686.h"), cfg.Targets[1].Output)

	targets := cfg.EngineTargets()
	assert.Equal(t, platform.SetLinuxI686, targets[1].Set)

	ec := cfg.EngineConfig()
	assert.Equal(t, cfg.Features, ec.FeaturesFile)
	assert.Equal(t, 2, ec.Jobs)

	opts := cfg.CatalogOptions()
	assert.Equal(t, filepath.Join(dir, "catalog.json"), opts.CatalogFile)
	assert.Equal(t, filepath.Join(dir, "cpython"), opts.InputDir)
	assert.Equal(t, filepath.Join(dir, "dist"), opts.OutputDir)
	assert.Equal(t, catalog.DefaultExtras, opts.Extras)
	assert.Equal(t, catalog.DefaultOptional, opts.Optional)
}

func TestLoadConfig_SearchesUpward(t *testing.T) {
	ResetConfig()
	dir := writeProject(t, projectYAML)
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0750))
	t.Chdir(sub)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(dir, "build", "include"), cfg.OutputDir)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: headers\n"), 0600))
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(dir, "headers"), cfg.OutputDir)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"), nil)
	assert.ErrorContains(t, err, "error reading config file")
}

func TestLoadConfig_Precedence(t *testing.T) {
	ResetConfig()
	dir := writeProject(t, "output: text\nlog_level: info\n")
	t.Chdir(dir)

	t.Setenv("PYCONFGEN_OUTPUT", "markdown")
	t.Setenv("PYCONFGEN_LOG_LEVEL", "error")
	t.Setenv("PYCONFGEN_JOBS", "3")
	t.Setenv("PYCONFGEN_CATALOG_FILE", "files.json")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"-o", "json", "--state", "tmp/state.db"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "flag beats env")
	assert.Equal(t, "error", cfg.LogLevel, "env beats file")
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, filepath.Join(dir, "tmp", "state.db"), cfg.StatePath)
	require.NotNil(t, cfg.Catalog)
	assert.Equal(t, filepath.Join(dir, "files.json"), cfg.Catalog.File)
}

func TestLoadConfig_StateFlagRelativeToWorkingDir(t *testing.T) {
	ResetConfig()
	dir := writeProject(t, "jobs: 0\n")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0750))
	t.Chdir(sub)

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--state", "s.db"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sub, "s.db"), cfg.StatePath)

	ResetConfig()
	flags = newFlags()
	require.NoError(t, flags.Parse([]string{"--state", ":memory:"}))
	cfg, err = LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.StatePath)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LogLevel:     "warn",
			OutputFormat: "auto",
			Targets:      []TargetConfig{{Set: "macosx", Input: "in.h"}},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		errSubstr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad output", func(c *Config) { c.OutputFormat = "xml" }, "invalid output format"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"negative jobs", func(c *Config) { c.Jobs = -1 }, "jobs must not be negative"},
		{"guard", func(c *Config) { c.HeaderGuard = "Py_PYCONFIG_H" }, ""},
		{"bad guard", func(c *Config) { c.HeaderGuard = "a b" }, "header_guard: invalid include guard"},
		{"missing set", func(c *Config) { c.Targets[0].Set = "" }, "targets[0]: set is required"},
		{"unknown set", func(c *Config) { c.Targets[0].Set = "beos" }, "unknown configuration set"},
		{"missing input", func(c *Config) { c.Targets[0].Input = "" }, "targets[0]: input is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.errSubstr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errSubstr)
		})
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	ResetConfig()
	dir := writeProject(t, "targets:\n  - set: solaris\n    input: x.h\n")
	t.Chdir(dir)

	_, err := LoadConfig("", nil)
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	logger := GetLogger(context.Background())
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))
}
