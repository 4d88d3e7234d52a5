package pkgbuild

// PackageArchSpecific is a split package's per-architecture dependency
// bundle. Unlike PkgbuildArchSpecific it carries no makedepends (make-time
// dependencies are recipe-scoped, never overridden per split package) and no
// sources (split packages never declare their own sources).
type PackageArchSpecific struct {
	CheckDepends []Dependency
	Depends      []Dependency
	OptDepends   []OptionalDependency
	Provides     []Provide
	Conflicts    []Dependency
	Replaces     []Dependency
}

// Package is one split-package descriptor: the body of a package_<name>()
// function plus whatever scalar/array fields it overrides from the recipe.
type Package struct {
	Pkgname    string
	Pkgdesc    string
	URL        string
	License    []string
	Groups     []string
	Backup     []string
	Options    Options
	Install    string
	Changelog  string
	MultiArch  *MultiArch[PackageArchSpecific]
}
