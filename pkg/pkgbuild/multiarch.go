package pkgbuild

import (
	"fmt"

	pkgerrors "github.com/arch-tools/pkgbuild/pkg/errors"
)

// MultiArch holds the generic/shared "any" value alongside an ordered map of
// per-architecture overrides. "any" is deliberately a first-class field, not
// an entry of Arches, so the map's key set only ever contains concrete
// architectures (invariant 2 in the data model).
type MultiArch[T any] struct {
	Any    T
	order  []Architecture
	byArch map[Architecture]T
}

// NewMultiArch builds an empty MultiArch with its Any slot set to the given
// value (typically the zero value of T, or a value pre-populated by the lifter).
func NewMultiArch[T any](any T) *MultiArch[T] {
	return &MultiArch[T]{Any: any, byArch: make(map[Architecture]T)}
}

// Set inserts a value for a concrete architecture. Re-inserting an
// already-present key is a hard error per invariant 2, so an entry cannot be
// replaced once it has been set.
func (m *MultiArch[T]) Set(arch Architecture, value T) error {
	if arch.IsAny() {
		return pkgerrors.New(pkgerrors.ErrTypeBrokenPKGBUILDs, "architecture key must not be \"any\"").
			WithContext("arch", string(arch))
	}

	if m.byArch == nil {
		m.byArch = make(map[Architecture]T)
	}

	if _, exists := m.byArch[arch]; exists {
		return pkgerrors.New(pkgerrors.ErrTypeBrokenPKGBUILDs,
			fmt.Sprintf("duplicate architecture key %q", arch)).
			WithContext("arch", string(arch))
	}

	m.byArch[arch] = value
	m.order = append(m.order, arch)

	return nil
}

// Get returns the value for a concrete architecture and whether it was present.
func (m *MultiArch[T]) Get(arch Architecture) (T, bool) {
	v, ok := m.byArch[arch]

	return v, ok
}

// Arches returns the concrete architecture keys in first-insertion order.
func (m *MultiArch[T]) Arches() []Architecture {
	out := make([]Architecture, len(m.order))
	copy(out, m.order)

	return out
}

// Len reports the number of concrete-architecture entries (excluding Any).
func (m *MultiArch[T]) Len() int {
	return len(m.order)
}

// Range calls fn for each concrete architecture in insertion order; Any is
// not visited. Iteration stops early if fn returns false.
func (m *MultiArch[T]) Range(fn func(arch Architecture, value T) bool) {
	for _, arch := range m.order {
		if !fn(arch, m.byArch[arch]) {
			return
		}
	}
}
