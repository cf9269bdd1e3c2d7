// Package plan turns a class pool into an assignment plan: contiguous slices
// of the pool, one per partition, sized by flooring each proportion and
// giving the remainder to the last partition.
package plan

import (
	"math"
	"math/rand/v2"

	"dataset-splitter/internal/config"
	"dataset-splitter/internal/pool"
	"dataset-splitter/internal/walkwalk"
)

// epsilon absorbs float error so that e.g. 0.29*100 floors to 29, not 28.
const epsilon = 1e-9

// Bucket is the ordered list of samples placed in one partition.
type Bucket struct {
	Partition string
	Samples   []walkwalk.Sample
}

// Assignment is the plan for one class. Buckets follow partition order.
type Assignment struct {
	Class   string
	Buckets []Bucket
}

// Counts returns the per-partition sample counts for a pool of n samples.
// Every count but the last is floor(proportion*n), clamped so the running
// total never exceeds n; the last partition receives what is left.
func Counts(n int, partitions []config.Partition) []int {
	counts := make([]int, len(partitions))
	if len(partitions) == 0 {
		return counts
	}
	remaining := n
	for i := 0; i < len(partitions)-1; i++ {
		c := int(math.Floor(partitions[i].Proportion*float64(n) + epsilon))
		if c < 0 {
			c = 0
		}
		if c > remaining {
			c = remaining
		}
		counts[i] = c
		remaining -= c
	}
	counts[len(counts)-1] = remaining
	return counts
}

// Assign walks the pool in its current order and slices it contiguously into
// the partitions. An empty pool yields empty, non-nil buckets.
func Assign(p *pool.Pool, partitions []config.Partition) Assignment {
	a := Assignment{Class: p.Class, Buckets: make([]Bucket, len(partitions))}
	counts := Counts(p.Len(), partitions)
	start := 0
	for i, part := range partitions {
		end := start + counts[i]
		s := make([]walkwalk.Sample, end-start)
		copy(s, p.Entries[start:end])
		a.Buckets[i] = Bucket{Partition: part.Name, Samples: s}
		start = end
	}
	return a
}

// Shuffle pre-shuffles the pool order with a generator seeded by seed, so the
// same seed and the same inputs always give the same split.
func Shuffle(p *pool.Pool, seed int64) {
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
	p.Reorder(r.Perm(p.Len()))
}

// Bucket returns the bucket for partition name.
func (a Assignment) Bucket(name string) (Bucket, bool) {
	for _, b := range a.Buckets {
		if b.Partition == name {
			return b, true
		}
	}
	return Bucket{}, false
}

// Names returns the identifiers of one bucket in plan order.
func (b Bucket) Names() []string {
	out := make([]string, len(b.Samples))
	for i, s := range b.Samples {
		out[i] = s.Name
	}
	return out
}

// Total returns the number of samples across all buckets.
func (a Assignment) Total() int {
	n := 0
	for _, b := range a.Buckets {
		n += len(b.Samples)
	}
	return n
}
