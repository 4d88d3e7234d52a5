package pkgbuild

import (
	"strings"

	"github.com/arch-tools/pkgbuild/pkg/vercmp"
)

// PlainVersion is the raw epoch/pkgver/pkgrel triple carried by a recipe or a
// dependency constraint. Any field may be empty.
type PlainVersion struct {
	Epoch  string
	Pkgver string
	Pkgrel string
}

// Compare orders two PlainVersion values using the alpha-numeric algorithm.
// An empty epoch is coerced to "0" on both sides; pkgrel only enters the
// comparison when both sides have one, otherwise it is skipped entirely.
func (v PlainVersion) Compare(other PlainVersion) vercmp.Ordering {
	epochA, epochB := v.Epoch, other.Epoch
	if epochA == "" {
		epochA = "0"
	}

	if epochB == "" {
		epochB = "0"
	}

	if ord := vercmp.Compare(epochA, epochB); ord != vercmp.Equal {
		return ord
	}

	if ord := vercmp.Compare(v.Pkgver, other.Pkgver); ord != vercmp.Equal {
		return ord
	}

	if v.Pkgrel == "" || other.Pkgrel == "" {
		return vercmp.Equal
	}

	return vercmp.Compare(v.Pkgrel, other.Pkgrel)
}

// Equal reports structural equality (not ordering equivalence): every field
// must match byte for byte.
func (v PlainVersion) Equal(other PlainVersion) bool {
	return v.Epoch == other.Epoch && v.Pkgver == other.Pkgver && v.Pkgrel == other.Pkgrel
}

// DependencyOrder names the relational operator of a dependency or provide
// version constraint.
type DependencyOrder int

const (
	// OrderNone means no constraint was present (bare name).
	OrderNone DependencyOrder = iota
	// OrderGreater is '>'.
	OrderGreater
	// OrderGreaterOrEqual is '>='.
	OrderGreaterOrEqual
	// OrderEqual is '='.
	OrderEqual
	// OrderLessOrEqual is '<='.
	OrderLessOrEqual
	// OrderLess is '<'.
	OrderLess
)

// String renders the operator in its textual recipe form.
func (o DependencyOrder) String() string {
	switch o {
	case OrderGreater:
		return ">"
	case OrderGreaterOrEqual:
		return ">="
	case OrderEqual:
		return "="
	case OrderLessOrEqual:
		return "<="
	case OrderLess:
		return "<"
	default:
		return ""
	}
}

// OrderedVersion pairs a DependencyOrder with the PlainVersion it constrains.
type OrderedVersion struct {
	Order DependencyOrder
	Plain PlainVersion
}

// ParsePlainVersion splits a plain "[epoch:]pkgver[-pkgrel]" string, the
// same shape dependency constraints and recipe pkgver/pkgrel/epoch fields
// share. The epoch is everything before the first ':', the pkgrel everything
// after the last '-', and the rest is the pkgver; a '-' inside the pkgver
// part (e.g. "1.2-rc1") is therefore read as the pkgrel separator.
func ParsePlainVersion(raw string) PlainVersion {
	var v PlainVersion

	rest := raw

	if idx := strings.IndexByte(rest, ':'); idx != -1 {
		v.Epoch = rest[:idx]
		rest = rest[idx+1:]
	}

	if idx := strings.LastIndexByte(rest, '-'); idx != -1 {
		v.Pkgrel = rest[idx+1:]
		rest = rest[:idx]
	}

	v.Pkgver = rest

	return v
}
