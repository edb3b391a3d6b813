// Package xpatch rewrites a configure-generated pyconfig.h for one
// configuration set: feature macros are forced on or off, or dropped
// together with their descriptive comment.
package xpatch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/pyconfgen/internal/fsutil"
)

// ErrNonASCII is returned when the patched header would contain non-ASCII
// bytes.
var ErrNonASCII = errors.New("patched header contains non-ASCII characters")

// ChangeKind classifies a Change.
type ChangeKind int

const (
	// Replaced: the feature line was rewritten to the required state.
	Replaced ChangeKind = iota + 1
	// Removed: the feature was discarded.
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Replaced:
		return "replaced"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Change records one edit made to the input.
type Change struct {
	Kind    ChangeKind `json:"kind"`
	Line    int        `json:"line"` // 1-based input line
	Feature string     `json:"feature"`
	Old     string     `json:"old"`
	New     string     `json:"new,omitempty"`
	// Context holds the comment line removed together with a discarded
	// feature, if any.
	Context string `json:"context,omitempty"`
}

// Result is a patched header.
type Result struct {
	Lines   []string
	Changes []Change
}

// Bytes renders the lines, each terminated by "\n".
func (r *Result) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	for i, ln := range r.Lines {
		for j := 0; j < len(ln); j++ {
			if ln[j] > 0x7f {
				return nil, fmt.Errorf("%w: output line %d", ErrNonASCII, i+1)
			}
		}
		buf.WriteString(ln)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Patch applies rules to the header read from r.
func Patch(r io.Reader, rules Rules) (*Result, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	return PatchLines(lines, rules), nil
}

// PatchLines applies rules to lines, which must not carry line endings.
func PatchLines(lines []string, rules Rules) *Result {
	ix := rules.index()
	res := &Result{Lines: make([]string, 0, len(lines))}

	for i, ln := range lines {
		name, state := classify(ln, ix.discarded)
		if name == "" {
			res.Lines = append(res.Lines, ln)
			continue
		}

		if state == stateDiscarded {
			change := Change{Kind: Removed, Line: i + 1, Feature: name, Old: ln}
			if n := len(res.Lines); n > 0 && isOneLineComment(res.Lines[n-1]) {
				change.Context = res.Lines[n-1]
				res.Lines = res.Lines[:n-1]
				if n := len(res.Lines); n > 0 && strings.TrimSpace(res.Lines[n-1]) == "" {
					res.Lines = res.Lines[:n-1]
				}
			}
			res.Changes = append(res.Changes, change)
			continue
		}

		want := ix.want(name)
		if want == stateNone || want == state {
			res.Lines = append(res.Lines, ln)
			continue
		}

		repl := "#define " + name + " 1"
		if want == stateDisabled {
			repl = "/* #undef " + name + " */"
		}
		res.Lines = append(res.Lines, repl)
		res.Changes = append(res.Changes, Change{Kind: Replaced, Line: i + 1, Feature: name, Old: ln, New: repl})
	}

	return res
}

// PatchFile patches input and writes the result to output atomically.
func PatchFile(input, output string, rules Rules) (*Result, error) {
	f, err := os.Open(input) //nolint:gosec // caller-controlled path
	if err != nil {
		return nil, fmt.Errorf("failed to open input header: %w", err)
	}
	defer func() { _ = f.Close() }()

	res, err := Patch(f, rules)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}

	data, err := res.Bytes()
	if err != nil {
		return nil, err
	}
	if err := fsutil.WriteFileAtomic(output, data, 0644); err != nil {
		return nil, err
	}
	return res, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r\n"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
