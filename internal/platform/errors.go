package platform

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	ErrUnrecognizedPlatform  = errors.New("unrecognized platform")
	ErrUnrecognizedLinuxArch = errors.New("unrecognized linux architecture")
)

// ErrorKind classifies a resolution failure.
type ErrorKind int

const (
	// UnrecognizedPlatform: the OS family matched no known family.
	UnrecognizedPlatform ErrorKind = iota + 1
	// UnrecognizedLinuxArchitecture: family is linux but the arch matched
	// no known architecture.
	UnrecognizedLinuxArchitecture
)

// Fixed diagnostics, also emitted as #error lines in the dispatch header.
const (
	DiagnosticUnknownPlatform  = "Unknown platform."
	DiagnosticUnknownLinuxArch = "Unknown linux arch."
)

func (k ErrorKind) String() string {
	switch k {
	case UnrecognizedPlatform:
		return "UnrecognizedPlatform"
	case UnrecognizedLinuxArchitecture:
		return "UnrecognizedLinuxArchitecture"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Diagnostic returns the fixed human-readable message for the kind.
func (k ErrorKind) Diagnostic() string {
	if k == UnrecognizedLinuxArchitecture {
		return DiagnosticUnknownLinuxArch
	}
	return DiagnosticUnknownPlatform
}

// ResolutionError is returned by Resolve when no table entry matches.
type ResolutionError struct {
	Kind       ErrorKind
	Descriptor Descriptor
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Kind.Diagnostic(), e.Descriptor)
}

// Diagnostic returns the fixed message without the descriptor.
func (e *ResolutionError) Diagnostic() string {
	return e.Kind.Diagnostic()
}

func (e *ResolutionError) Unwrap() error {
	if e.Kind == UnrecognizedLinuxArchitecture {
		return ErrUnrecognizedLinuxArch
	}
	return ErrUnrecognizedPlatform
}
