package commands

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pyconfgen/internal/cli/config"
	"github.com/leapstack-labs/pyconfgen/internal/cli/testutil"
)

// setupGeneratedProject runs generate once so the state database has a run
// and three artifacts.
func setupGeneratedProject(t *testing.T) string {
	t.Helper()
	dir := setupProject(t)
	_, err := execute(t, NewGenerateCommand())
	require.NoError(t, err)
	return dir
}

func TestQueryCommand(t *testing.T) {
	setupGeneratedProject(t)
	setOutputMode("json")

	out, err := execute(t, NewQueryCommand(),
		"SELECT config_set FROM artifacts WHERE kind = 'set_header' ORDER BY config_set")
	require.NoError(t, err)

	var got []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []map[string]any{
		{"config_set": "linux_x86_64"},
		{"config_set": "macosx"},
	}, got)
}

func TestQueryCommand_CSV(t *testing.T) {
	setupGeneratedProject(t)

	out, err := execute(t, NewQueryCommand(), "--csv",
		"SELECT kind, COUNT(*) AS n FROM v_artifacts GROUP BY kind ORDER BY kind")
	require.NoError(t, err)
	assert.Equal(t, "kind,n\ndispatch_header,1\nset_header,2\n", out)
}

func TestQueryCommand_Stdin(t *testing.T) {
	setupGeneratedProject(t)

	cmd := NewQueryCommand()
	cmd.SetIn(strings.NewReader("SELECT command, status FROM v_runs"))
	out, err := execute(t, cmd)
	require.NoError(t, err)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "| command | status |")
	assert.Contains(t, out, "| generate | completed |")

	cmd = NewQueryCommand()
	cmd.SetIn(strings.NewReader("  \n"))
	_, err = execute(t, cmd)
	assert.ErrorContains(t, err, "no SQL given")
}

func TestQueryCommand_Tables(t *testing.T) {
	setupGeneratedProject(t)

	out, err := execute(t, NewQueryCommand(), "tables")
	require.NoError(t, err)
	for _, name := range []string{"artifacts", "runs", "v_artifacts", "v_runs"} {
		assert.Contains(t, out, "| "+name+" |")
	}
	assert.NotContains(t, out, "goose")

	out, err = execute(t, NewQueryCommand(), "tables", "--views")
	require.NoError(t, err)
	assert.Contains(t, out, "| v_runs | view |")
	assert.NotContains(t, out, "| runs | table |")
}

func TestQueryCommand_Schema(t *testing.T) {
	setupGeneratedProject(t)

	out, err := execute(t, NewQueryCommand(), "schema", "artifacts")
	require.NoError(t, err)
	assert.Contains(t, out, "## artifacts")
	assert.Contains(t, out, "| kind | TEXT | NO |")

	_, err = execute(t, NewQueryCommand(), "schema", "nope")
	assert.ErrorContains(t, err, "table or view 'nope' not found")
}

func TestQueryCommand_Errors(t *testing.T) {
	t.Run("no database yet", func(t *testing.T) {
		setupProject(t)
		_, err := execute(t, NewQueryCommand(), "SELECT 1")
		assert.ErrorContains(t, err, "run 'pyconfgen generate' first")
	})

	t.Run("state disabled", func(t *testing.T) {
		setupProject(t)
		config.GetCurrentConfig().StatePath = ":memory:"
		_, err := execute(t, NewQueryCommand(), "SELECT 1")
		assert.ErrorContains(t, err, "state tracking is disabled")
	})

	t.Run("bad sql", func(t *testing.T) {
		setupGeneratedProject(t)
		_, err := execute(t, NewQueryCommand(), "SELECT * FROM nope")
		assert.ErrorContains(t, err, "query failed")
	})
}

func TestHandleDotCommand(t *testing.T) {
	dir := setupGeneratedProject(t)
	db, _, err := openStateDB(filepath.Join(dir, config.DefaultStateFile))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	ctx := context.Background()

	tests := []struct {
		line    string
		quit    bool
		wantOut string
		wantErr string
	}{
		{line: ".tables", wantOut: "| v_artifacts | view |"},
		{line: ".views", wantOut: "| v_runs | view |"},
		{line: ".schema runs", wantOut: "| status | TEXT | NO |"},
		{line: ".schema", wantErr: "usage: .schema <table>"},
		{line: ".help", wantOut: ".schema <name>"},
		{line: ".bogus", wantErr: "unknown command .bogus"},
		{line: ".quit", quit: true},
		{line: ".EXIT", quit: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			tr := testutil.NewTestRendererMarkdown()
			assert.Equal(t, tt.quit, handleDotCommand(ctx, tr.Renderer, db, tt.line, false))
			if tt.wantOut != "" {
				assert.Contains(t, tr.Output(), tt.wantOut)
			}
			if tt.wantErr != "" {
				assert.Contains(t, tr.ErrorOutput(), tt.wantErr)
			}
		})
	}
}

func TestNewTableCompleter(t *testing.T) {
	dir := setupGeneratedProject(t)
	db, _, err := openStateDB(filepath.Join(dir, config.DefaultStateFile))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	var names []string
	for _, c := range newTableCompleter(context.Background(), db).GetChildren() {
		names = append(names, strings.TrimSpace(string(c.GetName())))
	}
	assert.Contains(t, names, ".schema")
	assert.Contains(t, names, "artifacts")
	assert.Contains(t, names, "v_runs")
}
