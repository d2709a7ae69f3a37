package seating

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource always returns the same index, clamped to n.
type fixedSource struct{ index int }

func (f fixedSource) IntN(n int) int {
	if f.index >= n {
		return n - 1
	}
	return f.index
}

func TestSampler_ShuffleIsBijection(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		s := NewSampler(6, 4, NewSeededSource(seed, 0))
		g, err := s.Shuffle()
		require.NoError(t, err)
		require.Equal(t, 6, g.Rows())
		require.Equal(t, 4, g.Columns())

		seen := make(map[int]bool, 24)
		for i := 0; i < g.Rows(); i++ {
			for j := 0; j < g.Columns(); j++ {
				id := g.At(i, j)
				if id < 1 || id > 24 {
					t.Fatalf("seed %d: student %d out of range", seed, id)
				}
				if seen[id] {
					t.Fatalf("seed %d: student %d seated twice", seed, id)
				}
				seen[id] = true
			}
		}
		assert.Len(t, seen, 24)
	}
}

func TestSampler_SampleErrors(t *testing.T) {
	s := NewSampler(2, 3, fixedSource{})

	_, err := s.Sample(nil)
	if !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("Sample(nil) error = %v, want ErrEmptyPopulation", err)
	}

	_, err = s.Sample(Population(5))
	if !errors.Is(err, ErrPopulationMismatch) {
		t.Errorf("Sample(5 students) error = %v, want ErrPopulationMismatch", err)
	}

	_, err = s.Sample(Population(7))
	if !errors.Is(err, ErrPopulationMismatch) {
		t.Errorf("Sample(7 students) error = %v, want ErrPopulationMismatch", err)
	}
}

func TestSampler_SampleDoesNotModifyPool(t *testing.T) {
	pool := Population(4)
	want := slices.Clone(pool)

	s := NewSampler(2, 2, NewSeededSource(7, 7))
	_, err := s.Sample(pool)
	require.NoError(t, err)
	assert.Equal(t, want, pool)
}

func TestSampler_SwapRemoveOrder(t *testing.T) {
	// Always picking index 0 takes the first element, then moves the last
	// element into slot 0: 1, 4, 3, 2.
	s := NewSampler(2, 2, fixedSource{index: 0})
	g, err := s.Sample([]int{1, 2, 3, 4})
	require.NoError(t, err)

	got := []int{g.At(0, 0), g.At(0, 1), g.At(1, 0), g.At(1, 1)}
	assert.Equal(t, []int{1, 4, 3, 2}, got)

	// Always picking the last index consumes the pool back to front.
	s = NewSampler(2, 2, fixedSource{index: 1 << 30})
	g, err = s.Sample([]int{1, 2, 3, 4})
	require.NoError(t, err)

	got = []int{g.At(0, 0), g.At(0, 1), g.At(1, 0), g.At(1, 1)}
	assert.Equal(t, []int{4, 3, 2, 1}, got)
}

func TestSampler_FirstSeatIsUniform(t *testing.T) {
	const draws = 40_000
	s := NewSampler(2, 2, NewSeededSource(42, 1))

	counts := make(map[int]int, 4)
	for i := 0; i < draws; i++ {
		g, err := s.Shuffle()
		require.NoError(t, err)
		counts[g.At(0, 0)]++
	}

	// Expected 10,000 each; binomial sd is about 87.
	for id := 1; id <= 4; id++ {
		if c := counts[id]; c < 9400 || c > 10600 {
			t.Errorf("student %d took seat (0,0) %d times, want about %d", id, c, draws/4)
		}
	}
}

func TestSeededSources_Deterministic(t *testing.T) {
	a := SeededSources(99)
	b := SeededSources(99)

	for run := 0; run < 5; run++ {
		srcA, err := a(run)
		require.NoError(t, err)
		srcB, err := b(run)
		require.NoError(t, err)

		gA, err := NewSampler(6, 4, srcA).Shuffle()
		require.NoError(t, err)
		gB, err := NewSampler(6, 4, srcB).Shuffle()
		require.NoError(t, err)

		assert.Equal(t, gA.String(), gB.String(), "run %d", run)
	}
}

func TestCryptoSources(t *testing.T) {
	src, err := CryptoSources()(0)
	require.NoError(t, err)

	g, err := NewSampler(3, 3, src).Shuffle()
	require.NoError(t, err)
	assert.Equal(t, 9, g.Len())
}
