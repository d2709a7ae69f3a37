package seating

import "fmt"

// Source is a uniform integer generator. IntN must return a value in [0, n)
// without modulo bias. *math/rand/v2.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// Sampler draws uniformly random seating arrangements for a fixed grid size.
// A Sampler is not safe for concurrent use; give each goroutine its own.
type Sampler struct {
	rows int
	cols int
	src  Source
}

// NewSampler creates a sampler for a rows x cols classroom drawing from src.
func NewSampler(rows, cols int, src Source) *Sampler {
	return &Sampler{rows: rows, cols: cols, src: src}
}

// Shuffle seats the full population 1..rows*cols at random.
func (s *Sampler) Shuffle() (Grid, error) {
	return s.Sample(Population(s.rows * s.cols))
}

// Sample places every identifier in pool into the grid, filling seats in
// row-major order with a uniformly chosen remaining student each time.
// The caller's slice is not modified.
func (s *Sampler) Sample(pool []int) (Grid, error) {
	if len(pool) == 0 {
		return Grid{}, ErrEmptyPopulation
	}
	if len(pool) != s.rows*s.cols {
		return Grid{}, fmt.Errorf("%w: %d students for %dx%d seats", ErrPopulationMismatch, len(pool), s.rows, s.cols)
	}

	remaining := make([]int, len(pool))
	copy(remaining, pool)

	seats := make([]int, 0, len(pool))
	for len(remaining) > 0 {
		var id int
		id, remaining = chooseAndRemove(s.src, remaining)
		seats = append(seats, id)
	}

	return Grid{rows: s.rows, cols: s.cols, seats: seats}, nil
}

// chooseAndRemove picks a uniformly random element, moves the last element
// into its slot and returns the shortened slice.
func chooseAndRemove(src Source, list []int) (int, []int) {
	i := src.IntN(len(list))
	chosen := list[i]
	last := len(list) - 1
	list[i] = list[last]
	return chosen, list[:last]
}
