package header

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pyconfgen/internal/platform"
)

const wantDispatch = `#if defined(_WIN32)
#  include "pyconfig_winapi.h"
#elif defined(__linux__)
#  if defined(__x86_64__)
#    include "pyconfig_linux_x86_64.h"
#  elif defined(__i386__)
#    include "pyconfig_linux_i686.h"
#  elif defined(__aarch64__)
#    include <pyconfig_linux_aarch64.h>
#  elif defined(__arm__)
#    include <pyconfig_linux_arm.h>
#  else
#    error "Unknown linux arch."
#  endif
#elif defined(__APPLE__)
#  include "pyconfig_macosx.h"
#else
#  error "Unknown platform."
#endif
`

func TestRender_MatchesDispatchHeader(t *testing.T) {
	assert.Equal(t, wantDispatch, String(Options{}))
}

func TestRender_Guard(t *testing.T) {
	got := String(Options{Guard: "Py_PYCONFIG_H"})

	assert.True(t, strings.HasPrefix(got, "#ifndef Py_PYCONFIG_H\n#define Py_PYCONFIG_H\n\n"))
	assert.True(t, strings.HasSuffix(got, "\n#endif /* Py_PYCONFIG_H */\n"))
	assert.Contains(t, got, wantDispatch)
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		guard   string
		wantErr bool
	}{
		{"", false},
		{"Py_PYCONFIG_H", false},
		{"_PYCONFIG_H", false},
		{"H2", false},
		{"a b", true},
		{"2PY_H", true},
		{"PY-CONFIG_H", true},
		{"PY_H\n#define X", true},
	}

	for _, tt := range tests {
		t.Run(tt.guard, func(t *testing.T) {
			err := Options{Guard: tt.guard}.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidGuard)
		})
	}
}

func TestRender_RejectsInvalidGuard(t *testing.T) {
	var sb strings.Builder
	err := Render(&sb, Options{Guard: "a b"})
	require.ErrorIs(t, err, ErrInvalidGuard)
	assert.Empty(t, sb.String())

	path := filepath.Join(t.TempDir(), FileName)
	require.ErrorIs(t, Write(path, Options{Guard: "a b"}), ErrInvalidGuard)
	assert.NoFileExists(t, path)
}

func TestRender_IncludesEverySetOnce(t *testing.T) {
	got := String(Options{})
	for _, set := range platform.Sets() {
		assert.Equal(t, 1, strings.Count(got, set.Header()), set)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", FileName)

	require.NoError(t, Write(path, Options{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, wantDispatch, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should not be left behind")
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()

	err := Verify(dir)
	require.ErrorIs(t, err, ErrMissingHeaders)
	for _, set := range platform.Sets() {
		assert.Contains(t, err.Error(), set.Header())
	}

	for _, set := range platform.Sets() {
		require.NoError(t, os.WriteFile(filepath.Join(dir, set.Header()), []byte("/* */\n"), 0600))
	}
	assert.NoError(t, Verify(dir))

	require.NoError(t, os.Remove(filepath.Join(dir, platform.SetMacOSX.Header())))
	err = Verify(dir)
	require.ErrorIs(t, err, ErrMissingHeaders)
	assert.Contains(t, err.Error(), "pyconfig_macosx.h")
	assert.NotContains(t, err.Error(), "pyconfig_winapi.h")
}
