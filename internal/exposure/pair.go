// Package exposure accumulates proximity-weighted contact time between pairs
// of students seated in a classroom grid.
package exposure

import (
	"errors"
	"fmt"
)

// ErrSameStudent is returned when a pair is built from one student twice.
var ErrSameStudent = errors.New("pair requires two distinct students")

// Pair is an unordered pair of distinct students in canonical (ascending) order,
// so NewPair(a, b) == NewPair(b, a). Pair is comparable and used as a map key.
type Pair struct {
	low  int
	high int
}

// NewPair returns the canonical pair for students a and b.
func NewPair(a, b int) (Pair, error) {
	if a == b {
		return Pair{}, fmt.Errorf("%w: %d", ErrSameStudent, a)
	}
	if a > b {
		a, b = b, a
	}
	return Pair{low: a, high: b}, nil
}

// Low returns the smaller student identifier.
func (p Pair) Low() int { return p.low }

// High returns the larger student identifier.
func (p Pair) High() int { return p.high }

// Students returns both identifiers, smaller first.
func (p Pair) Students() [2]int { return [2]int{p.low, p.high} }

// Contains reports whether student is one of the pair.
func (p Pair) Contains(student int) bool {
	return p.low == student || p.high == student
}

// Other returns the partner of student, or ok=false if student is not in the pair.
func (p Pair) Other(student int) (int, bool) {
	switch student {
	case p.low:
		return p.high, true
	case p.high:
		return p.low, true
	}
	return 0, false
}

// Less orders pairs by their low then high identifier.
func (p Pair) Less(q Pair) bool {
	if p.low != q.low {
		return p.low < q.low
	}
	return p.high < q.high
}

func (p Pair) String() string {
	return fmt.Sprintf("%d:%d", p.low, p.high)
}
