// Package set provides a small generic string-set data structure, used by
// the lifter to detect duplicate identifiers (split package names) in an
// otherwise well-formed harness stream.
package set

import "slices"

var exists = struct{}{}

// Set represents a simple set data structure implemented using a map.
type Set struct {
	m map[string]struct{}
}

// NewSet creates a new Set.
func NewSet() *Set {
	return &Set{m: make(map[string]struct{})}
}

// Add adds a value to the Set.
func (s *Set) Add(value string) {
	s.m[value] = exists
}

// Contains checks if the given value is present in the set.
func (s *Set) Contains(value string) bool {
	_, ok := s.m[value]

	return ok
}

// Remove removes the specified value from the set.
func (s *Set) Remove(value string) {
	delete(s.m, value)
}

// Len returns the number of elements currently in the set.
func (s *Set) Len() int {
	return len(s.m)
}

// Iter returns a channel that iterates over the elements of the set.
func (s *Set) Iter() <-chan string {
	iter := make(chan string)

	go func() {
		for key := range s.m {
			iter <- key
		}

		close(iter)
	}()

	return iter
}

// Contains checks if a string is present in an array of strings.
func Contains(array []string, str string) bool {
	return slices.Contains(array, str)
}
