package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFamily(t *testing.T) {
	tests := map[string]Family{
		"windows":  FamilyWindows,
		"Win32":    FamilyWindows,
		"linux":    FamilyLinux,
		" LINUX ":  FamilyLinux,
		"darwin":   FamilyMacOS,
		"macosx":   FamilyMacOS,
		"macos":    FamilyMacOS,
		"freebsd":  "freebsd",
		"":         "",
		"Solaris ": "solaris",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseFamily(in), "input %q", in)
	}
}

func TestParseArch(t *testing.T) {
	tests := map[string]Arch{
		"amd64":   ArchX86_64,
		"x86_64":  ArchX86_64,
		"386":     ArchI686,
		"i686":    ArchI686,
		"arm64":   ArchAArch64,
		"AArch64": ArchAArch64,
		"arm":     ArchARM,
		"armv7l":  ArchARM,
		"riscv64": "riscv64",
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseArch(in), "input %q", in)
	}
}

func TestFromGo(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         ConfigSet
	}{
		{"linux", "amd64", SetLinuxX86_64},
		{"linux", "386", SetLinuxI686},
		{"linux", "arm64", SetLinuxAArch64},
		{"linux", "arm", SetLinuxARM},
		{"windows", "arm64", SetWinAPI},
		{"darwin", "arm64", SetMacOSX},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := Resolve(FromGo(tt.goos, tt.goarch))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Resolve(FromGo("linux", "riscv64"))
	assert.ErrorIs(t, err, ErrUnrecognizedLinuxArch)
	_, err = Resolve(FromGo("freebsd", "amd64"))
	assert.ErrorIs(t, err, ErrUnrecognizedPlatform)
}

func TestParseConfigSet(t *testing.T) {
	tests := []struct {
		in      string
		want    ConfigSet
		wantErr bool
	}{
		{"winapi", SetWinAPI, false},
		{"linux_arm", SetLinuxARM, false},
		{" macosx ", SetMacOSX, false},
		{"x86", SetLinuxI686, false},
		{"x86_64", SetLinuxX86_64, false},
		{"arm", SetLinuxARM, false},
		{"arm64", SetLinuxAArch64, false},
		{"linux_riscv64", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConfigSet(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown configuration set")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAliases(t *testing.T) {
	assert.Equal(t, []string{"arm"}, Aliases(SetLinuxARM))
	assert.Equal(t, []string{"x86_64"}, Aliases(SetLinuxX86_64))
	assert.Nil(t, Aliases(SetWinAPI))
}

func TestDescriptor_String(t *testing.T) {
	assert.Equal(t, "linux/arm", Descriptor{FamilyLinux, ArchARM}.String())
	assert.Equal(t, "macos", Descriptor{Family: FamilyMacOS}.String())
}
