package xpatch

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Rules is the effective feature policy for one configuration set.
// A name in both Enabled and Disabled is enabled.
type Rules struct {
	Enabled   []string `json:"enabled" yaml:"enabled"`
	Disabled  []string `json:"disabled" yaml:"disabled"`
	Discarded []string `json:"discarded" yaml:"discarded"`
}

// Merge returns r with other's lists appended.
func (r Rules) Merge(other Rules) Rules {
	return Rules{
		Enabled:   append(append([]string(nil), r.Enabled...), other.Enabled...),
		Disabled:  append(append([]string(nil), r.Disabled...), other.Disabled...),
		Discarded: append(append([]string(nil), r.Discarded...), other.Discarded...),
	}
}

// Fingerprint is a stable hash of the rule sets, independent of order and
// duplicates.
func (r Rules) Fingerprint() string {
	h := sha256.New()
	for _, part := range []struct {
		tag   string
		names []string
	}{
		{"enabled", r.Enabled},
		{"disabled", r.Disabled},
		{"discarded", r.Discarded},
	} {
		_, _ = h.Write([]byte(part.tag + ":" + strings.Join(sortedUnique(part.names), " ") + "\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

type ruleIndex struct {
	enabled, disabled, discarded map[string]struct{}
}

// want returns the required state of name, or stateNone when the rules
// leave it alone.
func (ix ruleIndex) want(name string) featureState {
	if _, ok := ix.enabled[name]; ok {
		return stateEnabled
	}
	if _, ok := ix.disabled[name]; ok {
		return stateDisabled
	}
	return stateNone
}

func (r Rules) index() ruleIndex {
	return ruleIndex{
		enabled:   toSet(r.Enabled),
		disabled:  toSet(r.Disabled),
		discarded: toSet(r.Discarded),
	}
}

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func sortedUnique(names []string) []string {
	set := toSet(names)
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
