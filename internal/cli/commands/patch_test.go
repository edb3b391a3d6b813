package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pyconfgen/internal/cli/testutil"
	"github.com/leapstack-labs/pyconfgen/internal/xpatch"
)

func TestPatchCommand(t *testing.T) {
	dir := setupProject(t)
	outPath := filepath.Join(dir, "patched.h")

	out, err := execute(t, NewPatchCommand(),
		"--set", "x86_64", "--input", "configure/pyconfig.h", "--output-file", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "| 2 | replaced | HAVE_ALARM | #define HAVE_ALARM 1 | /* #undef HAVE_ALARM */ |")
	assert.Contains(t, out, "Wrote "+outPath+" (2 changes)")

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(got), "/* #undef HAVE_ALARM */\n")
	assert.Contains(t, string(got), "#define HAVE_EPOLL 1\n")
}

func TestPatchCommand_DryRunJSON(t *testing.T) {
	dir := setupProject(t)
	setOutputMode("json")

	out, err := execute(t, NewPatchCommand(),
		"--set", "macosx", "--input", "configure/pyconfig.h", "--dry-run")
	require.NoError(t, err)

	var got struct {
		Set     string `json:"set"`
		DryRun  bool   `json:"dry_run"`
		Changes []struct {
			Kind    string `json:"kind"`
			Feature string `json:"feature"`
		} `json:"changes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "macosx", got.Set)
	assert.True(t, got.DryRun)
	require.Len(t, got.Changes, 1)
	assert.Equal(t, "replaced", got.Changes[0].Kind)
	assert.Equal(t, "HAVE_ALARM", got.Changes[0].Feature)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "patched.h", e.Name())
	}
}

func TestPatchCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown set", []string{"--set", "haiku", "--input", "configure/pyconfig.h", "--dry-run"}, "unknown configuration set"},
		{"no output", []string{"--set", "winapi", "--input", "configure/pyconfig.h"}, "--output-file is required"},
		{"missing input", []string{"--set", "winapi", "--input", "nope.h", "--dry-run"}, "failed to open input"},
		{"bad features", []string{"--set", "winapi", "--input", "configure/pyconfig.h", "--dry-run", "--features", "rules.txt"}, "unsupported feature file"},
		{"required flags", []string{"--dry-run"}, "required flag(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupProject(t)
			_, err := execute(t, NewPatchCommand(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRenderChanges(t *testing.T) {
	changes := []xpatch.Change{
		{Line: 2, Kind: xpatch.Replaced, Feature: "HAVE_ALARM", Old: "#define HAVE_ALARM 1", New: "/* #undef HAVE_ALARM */"},
	}

	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		renderChanges(tr.Renderer, changes)
		testutil.AssertNoANSI(t, tr.Output())
		testutil.AssertValidMarkdown(t, tr.Output())
		assert.Contains(t, tr.Output(), "| 2 | replaced | HAVE_ALARM |")
	})

	t.Run("text", func(t *testing.T) {
		tr := testutil.NewTestRendererText()
		renderChanges(tr.Renderer, changes)
		assert.Contains(t, tr.Output(), "HAVE_ALARM")
		assert.Contains(t, tr.Output(), "replaced")
	})

	t.Run("empty", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		renderChanges(tr.Renderer, nil)
		assert.Equal(t, "_No changes_\n", tr.Output())
	})
}
