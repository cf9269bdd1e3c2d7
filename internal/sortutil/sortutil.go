// Package sortutil holds the small ordering helpers that keep listings and
// reports deterministic.
package sortutil

import (
	"maps"
	"slices"
)

// StablePathSort returns a new slice containing the input names sorted
// bytewise. The original slice is not modified.
func StablePathSort(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return out
}

// SortedKeys returns the keys of m in bytewise order.
func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
