package java

import "sort"

// NameSet is a set of simple Java names.
type NameSet map[string]struct{}

// NewNameSet creates a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Add inserts name.
func (s NameSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Intersects reports whether s and other share at least one name.
func (s NameSet) Intersects(other NameSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for n := range small {
		if large.Has(n) {
			return true
		}
	}
	return false
}

// Union adds every name of other to s.
func (s NameSet) Union(other NameSet) {
	for n := range other {
		s[n] = struct{}{}
	}
}

// Sorted returns the names in lexical order.
func (s NameSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
