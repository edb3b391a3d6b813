package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	tests := []struct {
		in   string
		want OutputMode
	}{
		{"", ModeAuto},
		{"auto", ModeAuto},
		{"TEXT", ModeText},
		{"markdown", ModeMarkdown},
		{"md", ModeMarkdown},
		{" json ", ModeJSON},
		{"yaml", ModeAuto},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mode(tt.in))
		})
	}

	assert.True(t, ValidMode("md"))
	assert.False(t, ValidMode("yaml"))
}

func TestEffectiveMode(t *testing.T) {
	var out, errOut bytes.Buffer

	assert.Equal(t, ModeText, NewRendererWithTTY(&out, &errOut, true, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeMarkdown, NewRendererWithTTY(&out, &errOut, false, ModeAuto).EffectiveMode())
	assert.Equal(t, ModeJSON, NewRendererWithTTY(&out, &errOut, true, ModeJSON).EffectiveMode())
	// A buffer is never a terminal.
	assert.False(t, NewRenderer(&out, &errOut, ModeAuto).IsTTY())
}

func TestRenderer_Markdown(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeMarkdown)

	r.Header(2, "Targets")
	r.StatusLine("linux_x86_64", "success", "3 changes")
	r.KeyValue("Output", "out/")
	r.Success("done")
	r.Warning("careful")
	r.Table([]string{"Set", "State"}, [][]string{{"macosx", "fresh"}})

	got := out.String()
	assert.Contains(t, got, "## Targets\n")
	assert.Contains(t, got, "- linux_x86_64: Success (3 changes)\n")
	assert.Contains(t, got, "- **Output:** out/\n")
	assert.Contains(t, got, "**done**\n")
	assert.Contains(t, got, "| Set | State |")
	assert.Contains(t, got, "| macosx | fresh |")
	assert.NotContains(t, got, "\x1b[")
	assert.Equal(t, "Warning: careful\n", errOut.String())
}

func TestRenderer_TextWithoutColor(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeText)

	r.StatusLine("pyconfig.h", "success", "")
	r.StatusLine("pyconfig_macosx.h", "skipped", "up to date")
	r.Table([]string{"Set"}, [][]string{{"winapi"}})

	got := out.String()
	assert.Contains(t, got, "  ✓ pyconfig.h\n")
	assert.Contains(t, got, "  - pyconfig_macosx.h up to date\n")
	assert.Contains(t, got, "winapi")
	assert.Contains(t, got, "┌")
	assert.NotContains(t, got, "\x1b[")
}

func TestRenderer_JSON(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRendererWithTTY(&out, &errOut, false, ModeJSON)

	require.NoError(t, r.JSON(map[string]string{"set": "winapi"}))
	assert.JSONEq(t, `{"set":"winapi"}`, out.String())
}

func TestFormatCodeBlock(t *testing.T) {
	assert.Equal(t, "```c\n#define A 1\n```", FormatCodeBlock("c", "#define A 1\n\n"))
}
