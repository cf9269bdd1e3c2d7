// Package pool merges the canonical and augmented samples of one class into
// a single ordered selection pool, deduplicated by file name.
package pool

import (
	"dataset-splitter/internal/walkwalk"
)

// Pool is the deduplicated, ordered sample set of one class.
type Pool struct {
	Class   string
	Entries []walkwalk.Sample
	// Shadowed counts augmented samples dropped because a canonical sample
	// with the same name exists.
	Shadowed int

	index map[string]int
}

// Build starts from the canonical samples and appends each augmented sample
// whose name is not already present. Canonical entries keep their order and
// win every name collision; surviving augmented entries follow in order.
func Build(class string, canonical, augmented []walkwalk.Sample) *Pool {
	p := &Pool{
		Class:   class,
		Entries: make([]walkwalk.Sample, 0, len(canonical)+len(augmented)),
		index:   make(map[string]int, len(canonical)+len(augmented)),
	}
	for _, s := range canonical {
		p.add(s)
	}
	for _, s := range augmented {
		if !p.add(s) {
			p.Shadowed++
		}
	}
	return p
}

func (p *Pool) add(s walkwalk.Sample) bool {
	if _, dup := p.index[s.Name]; dup {
		return false
	}
	p.index[s.Name] = len(p.Entries)
	p.Entries = append(p.Entries, s)
	return true
}

// Len returns the number of entries.
func (p *Pool) Len() int { return len(p.Entries) }

// Lookup returns the entry bound to name.
func (p *Pool) Lookup(name string) (walkwalk.Sample, bool) {
	i, ok := p.index[name]
	if !ok {
		return walkwalk.Sample{}, false
	}
	return p.Entries[i], true
}

// Names returns the identifiers in pool order.
func (p *Pool) Names() []string {
	out := make([]string, len(p.Entries))
	for i, s := range p.Entries {
		out[i] = s.Name
	}
	return out
}

// Reorder replaces the iteration order with order, a permutation of
// 0..Len()-1. It is how callers pre-shuffle a pool before planning.
func (p *Pool) Reorder(order []int) {
	if len(order) != len(p.Entries) {
		panic("pool: reorder length mismatch")
	}
	next := make([]walkwalk.Sample, len(p.Entries))
	for i, j := range order {
		next[i] = p.Entries[j]
	}
	p.Entries = next
	for i, s := range p.Entries {
		p.index[s.Name] = i
	}
}
