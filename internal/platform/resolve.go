package platform

// Resolve maps d to exactly one configuration set.
//
// Families are matched in table order. Within a family that branches on
// architecture, an unknown arch yields an UnrecognizedLinuxArchitecture
// error; a family absent from the table yields UnrecognizedPlatform.
func Resolve(d Descriptor) (ConfigSet, error) {
	for _, r := range table {
		if r.Family != d.Family {
			continue
		}
		if len(r.Arches) == 0 {
			return r.Set, nil
		}
		for _, a := range r.Arches {
			if a.Arch == d.Arch {
				return a.Set, nil
			}
		}
		return "", &ResolutionError{Kind: UnrecognizedLinuxArchitecture, Descriptor: d}
	}
	return "", &ResolutionError{Kind: UnrecognizedPlatform, Descriptor: d}
}

// MustResolve is like Resolve but panics on failure. Intended for
// package-level initialisation where the descriptor is a constant.
func MustResolve(d Descriptor) ConfigSet {
	s, err := Resolve(d)
	if err != nil {
		panic(err)
	}
	return s
}
