// Package header renders the pyconfig.h dispatch header: the C
// preprocessor form of the platform decision table.
package header

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/leapstack-labs/pyconfgen/internal/fsutil"
	"github.com/leapstack-labs/pyconfgen/internal/platform"
)

// FileName is the dispatch header's file name.
const FileName = platform.StableName + ".h"

// ErrMissingHeaders is returned by Verify when referenced set headers are
// absent.
var ErrMissingHeaders = errors.New("missing configuration set headers")

// ErrInvalidGuard is returned when the include guard is not a C identifier.
var ErrInvalidGuard = errors.New("invalid include guard")

var guardRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options controls rendering.
type Options struct {
	// Guard wraps the output in #ifndef/#define/#endif when non-empty.
	Guard string
}

// Validate reports whether the options can be rendered. An empty guard is
// valid.
func (o Options) Validate() error {
	if o.Guard != "" && !guardRe.MatchString(o.Guard) {
		return fmt.Errorf("%w: %q", ErrInvalidGuard, o.Guard)
	}
	return nil
}

// Render writes the dispatch header for the current decision table.
// Nothing is written when opts is invalid.
func Render(w io.Writer, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		_, _ = fmt.Fprintf(bw, format+"\n", args...)
	}

	if opts.Guard != "" {
		p("#ifndef %s", opts.Guard)
		p("#define %s", opts.Guard)
		p("")
	}

	for i, r := range platform.Rules() {
		directive := "#elif"
		if i == 0 {
			directive = "#if"
		}
		p("%s defined(%s)", directive, r.Macro)

		if len(r.Arches) == 0 {
			p("#  include %s", include(r.Set, false))
			continue
		}
		for j, a := range r.Arches {
			nested := "#  elif"
			if j == 0 {
				nested = "#  if"
			}
			p("%s defined(%s)", nested, a.Macro)
			p("#    include %s", include(a.Set, a.SystemInclude))
		}
		p("#  else")
		p("#    error %q", platform.DiagnosticUnknownLinuxArch)
		p("#  endif")
	}
	p("#else")
	p("#  error %q", platform.DiagnosticUnknownPlatform)
	p("#endif")

	if opts.Guard != "" {
		p("")
		p("#endif /* %s */", opts.Guard)
	}

	return bw.Flush()
}

func include(set platform.ConfigSet, system bool) string {
	if system {
		return "<" + set.Header() + ">"
	}
	return `"` + set.Header() + `"`
}

// String renders the header into a string. It returns "" when opts is
// invalid.
func String(opts Options) string {
	var sb strings.Builder
	_ = Render(&sb, opts)
	return sb.String()
}

// Write renders the header to path atomically.
func Write(path string, opts Options) error {
	var buf bytes.Buffer
	if err := Render(&buf, opts); err != nil {
		return fmt.Errorf("failed to render header: %w", err)
	}
	return fsutil.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// Verify checks that every set header the dispatch header includes is
// present in dir.
func Verify(dir string) error {
	var missing []string
	for _, set := range platform.Sets() {
		info, err := os.Stat(filepath.Join(dir, set.Header()))
		if err != nil || info.IsDir() {
			missing = append(missing, set.Header())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w in %s: %s", ErrMissingHeaders, dir, strings.Join(missing, ", "))
	}
	return nil
}
