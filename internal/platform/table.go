package platform

// Rule is one family branch of the decision table.
type Rule struct {
	Family Family
	// Macro is the compiler-predefined macro identifying the family.
	Macro string
	// Set is selected when the family does not branch on architecture.
	Set ConfigSet
	// Arches, when non-empty, are tried in order and the family fails
	// with an unrecognized-architecture error if none match.
	Arches []ArchRule
}

// ArchRule is one architecture branch nested in a Rule.
type ArchRule struct {
	Arch  Arch
	Macro string
	Set   ConfigSet
	// SystemInclude renders the include with angle brackets.
	SystemInclude bool
}

// table is ordered: first matching family wins, then first matching arch.
var table = []Rule{
	{Family: FamilyWindows, Macro: "_WIN32", Set: SetWinAPI},
	{Family: FamilyLinux, Macro: "__linux__", Arches: []ArchRule{
		{Arch: ArchX86_64, Macro: "__x86_64__", Set: SetLinuxX86_64},
		{Arch: ArchI686, Macro: "__i386__", Set: SetLinuxI686},
		{Arch: ArchAArch64, Macro: "__aarch64__", Set: SetLinuxAArch64, SystemInclude: true},
		{Arch: ArchARM, Macro: "__arm__", Set: SetLinuxARM, SystemInclude: true},
	}},
	{Family: FamilyMacOS, Macro: "__APPLE__", Set: SetMacOSX},
}

// Rules returns a copy of the decision table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(table))
	for i, r := range table {
		out[i] = r
		if r.Arches != nil {
			out[i].Arches = append([]ArchRule(nil), r.Arches...)
		}
	}
	return out
}

// Sets returns every configuration set in decision-table order.
func Sets() []ConfigSet {
	var sets []ConfigSet
	for _, r := range table {
		if len(r.Arches) == 0 {
			sets = append(sets, r.Set)
			continue
		}
		for _, a := range r.Arches {
			sets = append(sets, a.Set)
		}
	}
	return sets
}

// Entry is a flattened catalog row: the descriptor that selects a set.
type Entry struct {
	Descriptor Descriptor
	Macros     []string
	Set        ConfigSet
}

// Catalog flattens the decision table into one entry per set. Families
// that ignore architecture have an empty Arch.
func Catalog() []Entry {
	var out []Entry
	for _, r := range table {
		if len(r.Arches) == 0 {
			out = append(out, Entry{
				Descriptor: Descriptor{Family: r.Family},
				Macros:     []string{r.Macro},
				Set:        r.Set,
			})
			continue
		}
		for _, a := range r.Arches {
			out = append(out, Entry{
				Descriptor: Descriptor{Family: r.Family, Arch: a.Arch},
				Macros:     []string{r.Macro, a.Macro},
				Set:        a.Set,
			})
		}
	}
	return out
}
