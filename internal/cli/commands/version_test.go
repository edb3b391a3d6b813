package commands

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	for _, version := range []string{"0.1.0", "1.2.3", "dev"} {
		t.Run(version, func(t *testing.T) {
			out, err := execute(t, NewVersionCommand(version))
			require.NoError(t, err)

			assert.Contains(t, out, "pyconfgen v"+version+"\n")
			assert.Contains(t, out, "built with "+runtime.Version())
			assert.Contains(t, out, "for "+runtime.GOOS+"/"+runtime.GOARCH)
		})
	}
}

func TestVersionCommand_RejectsArgs(t *testing.T) {
	_, err := execute(t, NewVersionCommand("dev"), "extra")
	assert.Error(t, err)
}
