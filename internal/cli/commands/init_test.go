package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pyconfgen/internal/cli/config"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
	"github.com/leapstack-labs/pyconfgen/internal/xpatch"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		setupDir  func(t *testing.T, dir string)
		args      []string
		wantErr   bool
		wantFiles []string
	}{
		{
			name:      "init empty directory",
			args:      []string{},
			wantFiles: []string{"pyconfgen.yaml", "xpatch.yaml"},
		},
		{
			name:      "init subdirectory",
			args:      []string{"proj"},
			wantFiles: []string{"proj/pyconfgen.yaml", "proj/xpatch.yaml"},
		},
		{
			name: "init existing config without force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "xpatch.yaml"), []byte("existing"), 0600)
			},
			args:    []string{},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "pyconfgen.yaml"), []byte("existing"), 0600)
			},
			args:      []string{"--force"},
			wantFiles: []string{"pyconfgen.yaml", "xpatch.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.ResetConfig()
			tmpDir := t.TempDir()
			t.Chdir(tmpDir)

			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			_, err := execute(t, NewInitCommand(), tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			for _, f := range tt.wantFiles {
				_, err := os.Stat(filepath.Join(tmpDir, f))
				assert.False(t, os.IsNotExist(err), "expected file %q to exist", f)
			}
		})
	}
}

func TestInitCreatesLoadableProject(t *testing.T) {
	config.ResetConfig()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	_, err := execute(t, NewInitCommand())
	require.NoError(t, err)

	cfg := loadConfig(t)
	assert.Equal(t, filepath.Join(tmpDir, "xpatch.yaml"), cfg.Features)
	assert.Equal(t, filepath.Join(tmpDir, "out"), cfg.OutputDir)
	require.Len(t, cfg.Targets, len(platform.Sets()))
	assert.Equal(t, "winapi", cfg.Targets[0].Set)
	assert.Equal(t, filepath.Join(tmpDir, "configure", "winapi", "pyconfig.h"), cfg.Targets[0].Input)

	features, err := xpatch.LoadFeatures(cfg.Features)
	require.NoError(t, err)
	assert.Equal(t, []string{xpatch.SectionAll}, features.SectionNames())
}
