package exposure

import (
	"errors"
	"fmt"
	"time"

	"github.com/nvandessel/seatsim/internal/seating"
)

// ErrGridShape is returned when a grid does not match the pass dimensions.
var ErrGridShape = errors.New("grid shape does not match exposure pass")

// Relation is how two seats touch.
type Relation int

const (
	// Vertical seats share an edge in the same column, rows i and i+1.
	Vertical Relation = iota
	// Horizontal seats share an edge in the same row, columns j and j+1.
	Horizontal
	// Diagonal seats are (i,j) and (i+1,j+1).
	Diagonal
	// AntiDiagonal seats are (i+1,j) and (i,j+1).
	AntiDiagonal
)

// Adjacent reports whether the relation is edge-sharing.
func (r Relation) Adjacent() bool {
	return r == Vertical || r == Horizontal
}

func (r Relation) String() string {
	switch r {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	case Diagonal:
		return "diagonal"
	case AntiDiagonal:
		return "anti-diagonal"
	}
	return fmt.Sprintf("Relation(%d)", int(r))
}

// Seat is a grid position.
type Seat struct {
	Row int
	Col int
}

// Contact is one neighboring seat pair. Each physical neighbor pair appears
// exactly once; there is no wraparound at the grid edges.
type Contact struct {
	A        Seat
	B        Seat
	Relation Relation
}

// Contacts enumerates every range-1 neighbor pair in a rows x cols grid.
func Contacts(rows, cols int) []Contact {
	var out []Contact

	for i := 0; i < rows-1; i++ {
		for j := 0; j < cols; j++ {
			out = append(out, Contact{Seat{i, j}, Seat{i + 1, j}, Vertical})
		}
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols-1; j++ {
			out = append(out, Contact{Seat{i, j}, Seat{i, j + 1}, Horizontal})
		}
	}

	// Both diagonals of every 2x2 block are distinct pairs.
	for i := 0; i < rows-1; i++ {
		for j := 0; j < cols-1; j++ {
			out = append(out,
				Contact{Seat{i, j}, Seat{i + 1, j + 1}, Diagonal},
				Contact{Seat{i + 1, j}, Seat{i, j + 1}, AntiDiagonal},
			)
		}
	}

	return out
}

// Weights converts seat relations into exposure time for one iteration.
type Weights struct {
	IterationTime  time.Duration
	AdjacentFactor float64
	DiagonalFactor float64
}

// Adjacent returns the exposure for edge-sharing seats, truncated to whole nanoseconds.
func (w Weights) Adjacent() time.Duration {
	return time.Duration(float64(w.IterationTime) * w.AdjacentFactor)
}

// Diagonal returns the exposure for corner-sharing seats, truncated to whole nanoseconds.
func (w Weights) Diagonal() time.Duration {
	return time.Duration(float64(w.IterationTime) * w.DiagonalFactor)
}

// For returns the exposure for the given relation.
func (w Weights) For(r Relation) time.Duration {
	if r.Adjacent() {
		return w.Adjacent()
	}
	return w.Diagonal()
}

// Pass folds one seating arrangement into an accumulator. The neighbor list
// and per-relation durations are computed once and reused for every grid.
type Pass struct {
	rows     int
	cols     int
	contacts []Contact
	adjacent time.Duration
	diagonal time.Duration
}

// NewPass prepares a pass for a rows x cols classroom.
func NewPass(rows, cols int, w Weights) *Pass {
	return &Pass{
		rows:     rows,
		cols:     cols,
		contacts: Contacts(rows, cols),
		adjacent: w.Adjacent(),
		diagonal: w.Diagonal(),
	}
}

// Contacts returns the neighbor pairs the pass visits.
func (p *Pass) Contacts() []Contact {
	return p.contacts
}

// Apply adds the exposure of every neighbor pair in g to acc.
// A grid seating one student twice is a logic error and aborts the pass.
func (p *Pass) Apply(acc *Accumulator, g seating.Grid) error {
	if g.Rows() != p.rows || g.Columns() != p.cols {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrGridShape, g.Rows(), g.Columns(), p.rows, p.cols)
	}

	for _, c := range p.contacts {
		pair, err := NewPair(g.At(c.A.Row, c.A.Col), g.At(c.B.Row, c.B.Col))
		if err != nil {
			return fmt.Errorf("seats (%d,%d)-(%d,%d): %w", c.A.Row, c.A.Col, c.B.Row, c.B.Col, err)
		}
		if c.Relation.Adjacent() {
			acc.AddTime(pair, p.adjacent)
		} else {
			acc.AddTime(pair, p.diagonal)
		}
	}

	return nil
}

// NeighborCounts returns how many adjacent and diagonal neighbors seat s has.
func NeighborCounts(rows, cols int, s Seat) (adjacent, diagonal int) {
	for _, c := range Contacts(rows, cols) {
		if c.A != s && c.B != s {
			continue
		}
		if c.Relation.Adjacent() {
			adjacent++
		} else {
			diagonal++
		}
	}
	return adjacent, diagonal
}
