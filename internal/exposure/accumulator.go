package exposure

import (
	"iter"
	"maps"
	"slices"
	"time"
)

// Accumulator maps student pairs to their cumulative exposure time.
// Totals only ever grow. An Accumulator is not safe for concurrent mutation;
// each simulation run owns its own.
type Accumulator struct {
	totals map[Pair]time.Duration
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{totals: make(map[Pair]time.Duration)}
}

// AddTime adds d to the total for p, starting from zero if p is new.
// d must be non-negative.
func (a *Accumulator) AddTime(p Pair, d time.Duration) {
	if d < 0 {
		panic("exposure: negative exposure duration")
	}
	a.totals[p] += d
}

// Total returns the accumulated exposure for p; zero if p was never seen.
func (a *Accumulator) Total(p Pair) time.Duration {
	return a.totals[p]
}

// Len returns the number of pairs with recorded exposure.
func (a *Accumulator) Len() int {
	return len(a.totals)
}

// All iterates over every (pair, total) entry in unspecified order.
func (a *Accumulator) All() iter.Seq2[Pair, time.Duration] {
	return maps.All(a.totals)
}

// AtLeast returns the pairs whose total is >= threshold, sorted by Pair.Less.
// The comparison is inclusive: a pair exactly at the threshold is included.
func (a *Accumulator) AtLeast(threshold time.Duration) []Pair {
	var pairs []Pair
	for p, d := range a.totals {
		if d >= threshold {
			pairs = append(pairs, p)
		}
	}
	slices.SortFunc(pairs, func(x, y Pair) int {
		switch {
		case x.Less(y):
			return -1
		case y.Less(x):
			return 1
		}
		return 0
	})
	return pairs
}
