package xpatch

import (
	"regexp"
	"strings"
)

// Patterns are anchored at the start of the line only, so a line that
// merely begins with a comment still counts as a one-line comment.
var (
	reOneLineComment = regexp.MustCompile(`^\s*/\*(.*)\*/\s*`)
	reDefine         = regexp.MustCompile(`^\s*#\s*define\s+(\S+)\s+(.*)`)
	reUndef          = regexp.MustCompile(`^\s*#\s*undef\s+(\S+)`)
)

type featureState int

const (
	stateNone featureState = iota
	stateEnabled
	stateDisabled
	stateDiscarded
)

func isOneLineComment(line string) bool {
	return reOneLineComment.MatchString(line)
}

// stripComment returns the body of a one-line comment, or the line itself.
func stripComment(line string) string {
	if m := reOneLineComment.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return line
}

// classify reports which feature macro, if any, a header line controls and
// its current state. `#define NAME 1` is enabled; `#undef NAME`, bare or
// commented out, is disabled. A define whose value closes a comment is
// never a feature. Defines with any other value are not features unless
// the name is discarded.
func classify(line string, discard map[string]struct{}) (string, featureState) {
	line = stripComment(line)

	if m := reDefine.FindStringSubmatch(line); m != nil {
		name, value := m[1], m[2]
		if strings.Contains(value, "*/") {
			return "", stateNone
		}
		if _, ok := discard[name]; ok {
			return name, stateDiscarded
		}
		if value == "1" {
			return name, stateEnabled
		}
		return "", stateNone
	}

	if m := reUndef.FindStringSubmatch(line); m != nil {
		name := m[1]
		if _, ok := discard[name]; ok {
			return name, stateDiscarded
		}
		return name, stateDisabled
	}

	return "", stateNone
}
