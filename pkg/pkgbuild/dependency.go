package pkgbuild

// Dependency is a name plus an optional ordered version constraint, the
// shape shared by depends/makedepends/checkdepends/conflicts/replaces.
type Dependency struct {
	Name    string
	Version *OrderedVersion
}

// OptionalDependency adds a free-text reason, split from the dependency by
// ": " in the recipe's optdepends entries.
type OptionalDependency struct {
	Dependency
	Reason string
}

// Provide is a name plus an optional plain version following '='. A literal
// '>' or '<' in a provide entry is rejected upstream in the lifter: Provide
// never carries an order, only equality, which is why it holds a PlainVersion
// rather than an OrderedVersion.
type Provide struct {
	Name    string
	Version *PlainVersion
}
