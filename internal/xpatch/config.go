package xpatch

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/ini.v1"

	"github.com/leapstack-labs/pyconfgen/internal/platform"
)

// SectionAll applies to every configuration set.
const SectionAll = "all"

// INI option names, as used by legacy xpatch.ini files.
const (
	iniEnabled   = "ENABLED_FEATURES"
	iniDisabled  = "DISABLED_FEATURES"
	iniDiscarded = "DISCARDED_FEATURES"
)

// ErrMissingOption is returned when the "all" section lacks one of its
// three required lists.
var ErrMissingOption = errors.New("missing required option")

// Features is a parsed feature file: one Rules per section.
type Features struct {
	Path     string
	Sections map[string]Rules
}

// LoadFeatures reads a feature file, choosing the parser by extension:
// .ini for the legacy format, .yaml/.yml otherwise.
func LoadFeatures(path string) (*Features, error) {
	var (
		f   *Features
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg":
		f, err = loadINI(path)
	case ".yaml", ".yml":
		f, err = loadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported feature file %s: expected .ini, .yaml or .yml", path)
	}
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// For returns the effective rules for set: the "all" section followed by
// the set's own section and any legacy ABI-named section for it.
func (f *Features) For(set platform.ConfigSet) Rules {
	rules := f.Sections[SectionAll]
	names := append([]string{string(set)}, platform.Aliases(set)...)
	for _, name := range names {
		if sec, ok := f.Sections[name]; ok {
			rules = rules.Merge(sec)
		}
	}
	return rules
}

// SectionNames lists the sections in sorted order.
func (f *Features) SectionNames() []string {
	names := make([]string, 0, len(f.Sections))
	for n := range f.Sections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func loadINI(path string) (*Features, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		IgnoreInlineComment:        true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature file %s: %w", path, err)
	}

	f := &Features{Sections: make(map[string]Rules)}
	for _, sec := range cfg.Sections() {
		name := sec.Name()
		if name == ini.DefaultSection && len(sec.Keys()) == 0 {
			continue
		}
		if name == SectionAll {
			for _, opt := range []string{iniEnabled, iniDisabled, iniDiscarded} {
				if !sec.HasKey(opt) {
					return nil, fmt.Errorf("%w %s in section [%s] of %s", ErrMissingOption, opt, name, path)
				}
			}
		}
		f.Sections[name] = Rules{
			Enabled:   strings.Fields(sec.Key(iniEnabled).String()),
			Disabled:  strings.Fields(sec.Key(iniDisabled).String()),
			Discarded: strings.Fields(sec.Key(iniDiscarded).String()),
		}
	}

	if _, ok := f.Sections[SectionAll]; !ok {
		return nil, fmt.Errorf("feature file %s has no [%s] section", path, SectionAll)
	}
	return f, nil
}

// loadYAML reads the YAML form:
//
//	all:
//	  enabled: [HAVE_A]
//	  disabled: [HAVE_B]
//	  discarded: [HAVE_C]
//	linux_arm:
//	  disabled: [HAVE_D]
func loadYAML(path string) (*Features, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read feature file %s: %w", path, err)
	}

	f := &Features{Sections: make(map[string]Rules)}
	for name := range k.Raw() {
		if name == SectionAll {
			for _, opt := range []string{"enabled", "disabled", "discarded"} {
				if !k.Exists(name + "." + opt) {
					return nil, fmt.Errorf("%w %s in section %q of %s", ErrMissingOption, opt, name, path)
				}
			}
		}
		f.Sections[name] = Rules{
			Enabled:   k.Strings(name + ".enabled"),
			Disabled:  k.Strings(name + ".disabled"),
			Discarded: k.Strings(name + ".discarded"),
		}
	}

	if _, ok := f.Sections[SectionAll]; !ok {
		return nil, fmt.Errorf("feature file %s has no %q section", path, SectionAll)
	}
	return f, nil
}
