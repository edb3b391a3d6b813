// Package platform maps a build environment (OS family, CPU architecture)
// to exactly one pyconfig configuration set.
//
// The mapping is a fixed, ordered decision table. Family is matched first;
// architecture is consulted only inside a family that branches on it
// (currently linux). The same table drives the generated dispatch header,
// so the Go resolver and the C preprocessor rendering cannot disagree.
package platform

import "fmt"

// Family is the operating-system family axis of a Descriptor.
type Family string

// Known OS families.
const (
	FamilyWindows Family = "windows"
	FamilyLinux   Family = "linux"
	FamilyMacOS   Family = "macos"
)

// Arch is the CPU architecture axis of a Descriptor.
type Arch string

// Known architectures.
const (
	ArchX86_64  Arch = "x86_64"
	ArchI686    Arch = "i686"
	ArchAArch64 Arch = "aarch64"
	ArchARM     Arch = "arm"
)

// Descriptor is the resolution key. Arch is ignored unless the family
// branches on architecture.
type Descriptor struct {
	Family Family `json:"family"`
	Arch   Arch   `json:"arch,omitempty"`
}

// String returns "family/arch", or just the family when arch is empty.
func (d Descriptor) String() string {
	if d.Arch == "" {
		return string(d.Family)
	}
	return fmt.Sprintf("%s/%s", d.Family, d.Arch)
}

// ConfigSet names one platform-specific configuration set. It carries no
// data; the build dereferences it through Header.
type ConfigSet string

// The configuration set catalog.
const (
	SetWinAPI       ConfigSet = "winapi"
	SetLinuxX86_64  ConfigSet = "linux_x86_64"
	SetLinuxI686    ConfigSet = "linux_i686"
	SetLinuxAArch64 ConfigSet = "linux_aarch64"
	SetLinuxARM     ConfigSet = "linux_arm"
	SetMacOSX       ConfigSet = "macosx"
)

// StableName is the single name under which the selected set is visible
// to the rest of the build.
const StableName = "pyconfig"

// Header returns the file name of the set's header, e.g. pyconfig_winapi.h.
func (s ConfigSet) Header() string {
	return StableName + "_" + string(s) + ".h"
}

// String implements fmt.Stringer.
func (s ConfigSet) String() string {
	return string(s)
}
