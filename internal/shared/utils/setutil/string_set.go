// Package setutil provides set utilities for the name collections the
// migration drivers compare across catalogs.
package setutil

import "sort"

// StringSet is a set of string values.
// It uses map[string]struct{} internally for memory efficiency.
type StringSet struct {
	items map[string]struct{}
}

// NewStringSet creates a set holding the given values.
func NewStringSet(values ...string) *StringSet {
	s := &StringSet{
		items: make(map[string]struct{}, len(values)),
	}
	s.AddAll(values)
	return s
}

// Add adds a value to the set.
func (s *StringSet) Add(v string) {
	s.items[v] = struct{}{}
}

// AddAll adds all values to the set.
func (s *StringSet) AddAll(values []string) {
	for _, v := range values {
		s.items[v] = struct{}{}
	}
}

// Has returns true if the value exists in the set.
func (s *StringSet) Has(v string) bool {
	_, ok := s.items[v]
	return ok
}

// Difference returns the values of s that are not in other.
func (s *StringSet) Difference(other *StringSet) *StringSet {
	result := NewStringSet()
	for v := range s.items {
		if other == nil || !other.Has(v) {
			result.Add(v)
		}
	}
	return result
}

// Sorted returns all values in ascending order.
func (s *StringSet) Sorted() []string {
	result := make([]string, 0, len(s.items))
	for v := range s.items {
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}

// Len returns the number of elements in the set.
func (s *StringSet) Len() int {
	return len(s.items)
}

// Missing returns the values of want, in their original order, that are absent
// from have. Duplicates in want are reported once.
func Missing(want, have []string) []string {
	present := NewStringSet(have...)
	seen := NewStringSet()
	var result []string
	for _, v := range want {
		if present.Has(v) || seen.Has(v) {
			continue
		}
		seen.Add(v)
		result = append(result, v)
	}
	return result
}
