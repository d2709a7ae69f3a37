package simulation

import (
	"maps"
	"slices"
)

// Bin is one histogram entry: Count runs produced the value Key.
type Bin struct {
	Key   int `json:"key" yaml:"key"`
	Count int `json:"count" yaml:"count"`
}

// Histogram counts how many runs produced each value. It is not safe for
// concurrent use; batch workers keep their own and merge once.
type Histogram struct {
	counts map[int]int
}

// NewHistogram creates an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{counts: make(map[int]int)}
}

// Add adds n to the count for key.
func (h *Histogram) Add(key, n int) {
	h.counts[key] += n
}

// Merge adds every count of o into h.
func (h *Histogram) Merge(o *Histogram) {
	for k, n := range o.counts {
		h.counts[k] += n
	}
}

// Count returns the count for key.
func (h *Histogram) Count(key int) int {
	return h.counts[key]
}

// Total returns the sum of all counts.
func (h *Histogram) Total() int {
	total := 0
	for _, n := range h.counts {
		total += n
	}
	return total
}

// Bins returns the entries sorted by key ascending.
func (h *Histogram) Bins() []Bin {
	keys := slices.Sorted(maps.Keys(h.counts))
	bins := make([]Bin, len(keys))
	for i, k := range keys {
		bins[i] = Bin{Key: k, Count: h.counts[k]}
	}
	return bins
}
