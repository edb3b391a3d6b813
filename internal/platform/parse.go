package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// ParseFamily normalises an OS family tag. Aliases such as GOOS values
// map onto the known families; anything else is returned lowercased so
// that diagnostics can name it. It never fails: an unknown family is a
// resolution error, not a parse error.
func ParseFamily(s string) Family {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "windows", "win32", "win64", "win":
		return FamilyWindows
	case "linux", "gnu/linux":
		return FamilyLinux
	case "macos", "macosx", "darwin", "osx", "apple":
		return FamilyMacOS
	default:
		return Family(v)
	}
}

// ParseArch normalises a CPU architecture tag, accepting GOARCH and
// compiler-triple spellings.
func ParseArch(s string) Arch {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "x86_64", "amd64", "x86-64", "x64":
		return ArchX86_64
	case "i686", "i386", "386", "x86", "i586":
		return ArchI686
	case "aarch64", "arm64":
		return ArchAArch64
	case "arm", "armv7", "armv7l", "armhf", "armeabi", "armeabi-v7a":
		return ArchARM
	default:
		return Arch(v)
	}
}

// FromGo builds a Descriptor from GOOS/GOARCH values.
func FromGo(goos, goarch string) Descriptor {
	return Descriptor{Family: ParseFamily(goos), Arch: ParseArch(goarch)}
}

// Host returns the descriptor of the running toolchain.
func Host() Descriptor {
	return FromGo(runtime.GOOS, runtime.GOARCH)
}

// legacyABIs maps Android-style ABI names used by older feature files.
var legacyABIs = map[string]ConfigSet{
	"x86":    SetLinuxI686,
	"x86_64": SetLinuxX86_64,
	"arm":    SetLinuxARM,
	"arm64":  SetLinuxAArch64,
}

// ParseConfigSet accepts a set name or a legacy ABI alias.
func ParseConfigSet(s string) (ConfigSet, error) {
	v := strings.TrimSpace(s)
	for _, set := range Sets() {
		if string(set) == v {
			return set, nil
		}
	}
	if set, ok := legacyABIs[v]; ok {
		return set, nil
	}
	return "", fmt.Errorf("unknown configuration set %q (known: %s)", s, strings.Join(setNames(), ", "))
}

// Aliases returns the legacy ABI names that refer to set, sorted.
func Aliases(set ConfigSet) []string {
	var out []string
	for _, abi := range []string{"arm", "arm64", "x86", "x86_64"} {
		if legacyABIs[abi] == set {
			out = append(out, abi)
		}
	}
	return out
}

func setNames() []string {
	sets := Sets()
	names := make([]string, len(sets))
	for i, s := range sets {
		names[i] = string(s)
	}
	return names
}
