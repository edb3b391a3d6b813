package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCommand(t *testing.T) {
	dir := setupProject(t)

	out, err := execute(t, NewGenerateCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "- pyconfig_linux_x86_64.h: Success (2 changes)")
	assert.Contains(t, out, "- pyconfig_macosx.h: Success (1 changes)")
	assert.Contains(t, out, "- pyconfig.h: Success")
	assert.Contains(t, out, "Generated 2 of 2 targets")

	for _, name := range []string{"pyconfig.h", "pyconfig_linux_x86_64.h", "pyconfig_macosx.h"} {
		_, err := os.Stat(filepath.Join(dir, "out", name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(filepath.Join(dir, ".pyconfgen", "state.db"))
	assert.NoError(t, err)

	out, err = execute(t, NewGenerateCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "- pyconfig_macosx.h: Skipped (up to date)")
	assert.Contains(t, out, "Generated 0 of 2 targets")

	out, err = execute(t, NewGenerateCommand(), "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated 2 of 2 targets")
}

func TestGenerateCommand_JSON(t *testing.T) {
	setupProject(t)
	setOutputMode("json")

	out, err := execute(t, NewGenerateCommand())
	require.NoError(t, err)

	var got struct {
		RunID   string `json:"run_id"`
		Targets []struct {
			Skipped bool `json:"skipped"`
		} `json:"targets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.NotEmpty(t, got.RunID)
	assert.Len(t, got.Targets, 2)
}

func TestGenerateCommand_NoTargets(t *testing.T) {
	dir := setupProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pyconfgen.yaml"), []byte("output_dir: out\n"), 0600))
	loadConfig(t)

	_, err := execute(t, NewGenerateCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no targets configured")
	assert.Contains(t, err.Error(), "pyconfgen init")
}
