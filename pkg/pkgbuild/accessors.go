package pkgbuild

// archFilterMatches reports whether a concrete architecture should be
// included given an optional filter (nil meaning "all architectures").
func archFilterMatches(filter *Architecture, arch Architecture) bool {
	return filter == nil || *filter == arch
}

// Sources flattens every source-with-checksum bundle across the "any" slot
// and, unless filter is non-nil, every concrete architecture, in
// any-then-insertion-order. Passing a non-nil filter restricts the result to
// that one architecture's bundle (plus "any", which every build gets).
func (p *Pkgbuild) Sources(filter *Architecture) []SourceWithChecksum {
	var out []SourceWithChecksum

	out = append(out, p.MultiArch.Any.SourcesWithChecksums...)

	p.MultiArch.Range(func(arch Architecture, bundle PkgbuildArchSpecific) bool {
		if archFilterMatches(filter, arch) {
			out = append(out, bundle.SourcesWithChecksums...)
		}

		return true
	})

	return out
}

// Depends flattens the depends list the same way Sources flattens sources.
func (p *Pkgbuild) Depends(filter *Architecture) []Dependency {
	out := append([]Dependency{}, p.MultiArch.Any.Depends...)

	p.MultiArch.Range(func(arch Architecture, bundle PkgbuildArchSpecific) bool {
		if archFilterMatches(filter, arch) {
			out = append(out, bundle.Depends...)
		}

		return true
	})

	return out
}

// MakeDepends flattens the makedepends list across any plus architectures.
func (p *Pkgbuild) MakeDepends(filter *Architecture) []Dependency {
	out := append([]Dependency{}, p.MultiArch.Any.MakeDepends...)

	p.MultiArch.Range(func(arch Architecture, bundle PkgbuildArchSpecific) bool {
		if archFilterMatches(filter, arch) {
			out = append(out, bundle.MakeDepends...)
		}

		return true
	})

	return out
}

// CheckDepends flattens the checkdepends list across any plus architectures.
func (p *Pkgbuild) CheckDepends(filter *Architecture) []Dependency {
	out := append([]Dependency{}, p.MultiArch.Any.CheckDepends...)

	p.MultiArch.Range(func(arch Architecture, bundle PkgbuildArchSpecific) bool {
		if archFilterMatches(filter, arch) {
			out = append(out, bundle.CheckDepends...)
		}

		return true
	})

	return out
}

// OptDepends flattens the optdepends list across any plus architectures.
func (p *Pkgbuild) OptDepends(filter *Architecture) []OptionalDependency {
	out := append([]OptionalDependency{}, p.MultiArch.Any.OptDepends...)

	p.MultiArch.Range(func(arch Architecture, bundle PkgbuildArchSpecific) bool {
		if archFilterMatches(filter, arch) {
			out = append(out, bundle.OptDepends...)
		}

		return true
	})

	return out
}

// Conflicts flattens the conflicts list across any plus architectures.
func (p *Pkgbuild) Conflicts(filter *Architecture) []Dependency {
	out := append([]Dependency{}, p.MultiArch.Any.Conflicts...)

	p.MultiArch.Range(func(arch Architecture, bundle PkgbuildArchSpecific) bool {
		if archFilterMatches(filter, arch) {
			out = append(out, bundle.Conflicts...)
		}

		return true
	})

	return out
}

// Replaces flattens the replaces list across any plus architectures.
func (p *Pkgbuild) Replaces(filter *Architecture) []Dependency {
	out := append([]Dependency{}, p.MultiArch.Any.Replaces...)

	p.MultiArch.Range(func(arch Architecture, bundle PkgbuildArchSpecific) bool {
		if archFilterMatches(filter, arch) {
			out = append(out, bundle.Replaces...)
		}

		return true
	})

	return out
}

// Provides flattens the provides list across any plus architectures.
func (p *Pkgbuild) Provides(filter *Architecture) []Provide {
	out := append([]Provide{}, p.MultiArch.Any.Provides...)

	p.MultiArch.Range(func(arch Architecture, bundle PkgbuildArchSpecific) bool {
		if archFilterMatches(filter, arch) {
			out = append(out, bundle.Provides...)
		}

		return true
	})

	return out
}
