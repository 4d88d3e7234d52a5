// Package pkgbuild holds the owned, strongly-typed in-memory model a parsed
// PKGBUILD recipe is lifted into: version and dependency relations, source
// URLs with per-protocol fragment data, per-architecture overrides, the
// twelve build option flags, and split-package descriptors.
package pkgbuild

// PkgbuildArchSpecific is the recipe-level per-architecture bundle: ordered
// sources with their checksums, plus the six dependency-family lists and the
// provide list that can vary by architecture.
type PkgbuildArchSpecific struct {
	SourcesWithChecksums []SourceWithChecksum
	Depends              []Dependency
	MakeDepends          []Dependency
	CheckDepends         []Dependency
	OptDepends           []OptionalDependency
	Conflicts            []Dependency
	Replaces             []Dependency
	Provides             []Provide
}

// Pkgbuild is the fully lifted record for a single recipe.
type Pkgbuild struct {
	Pkgbase      string
	Pkgs         []Package
	Version      PlainVersion
	Pkgdesc      string
	URL          string
	License      []string
	Install      string
	Changelog    string
	ValidPGPKeys []string
	NoExtract    []string
	Groups       []string
	MultiArch    *MultiArch[PkgbuildArchSpecific]
	Backup       []string
	Options      Options
	PkgverFunc   bool
}
