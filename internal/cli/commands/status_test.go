package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCommand(t *testing.T) {
	setupProject(t)

	out, err := execute(t, NewStatusCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "| linux_x86_64 |")
	assert.Contains(t, out, "| missing |")
	assert.NotContains(t, out, "Last run")

	_, err = execute(t, NewGenerateCommand())
	require.NoError(t, err)

	setOutputMode("json")
	out, err = execute(t, NewStatusCommand())
	require.NoError(t, err)

	var got StatusOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotNil(t, got.LastRun)
	assert.Equal(t, "completed", got.LastRun.Status)
	require.Len(t, got.Artifacts, 3)
	for _, a := range got.Artifacts {
		assert.Equal(t, "fresh", a.State, a.Path)
	}
	assert.Equal(t, "dispatch_header", got.Artifacts[2].Kind)
}
