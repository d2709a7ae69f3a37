package seating

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPopulation is returned when sampling from an empty pool of students.
	ErrEmptyPopulation = errors.New("empty student population")

	// ErrPopulationMismatch is returned when the pool size differs from the seat count.
	ErrPopulationMismatch = errors.New("population size does not match seat count")

	// ErrInvalidGrid is returned when a grid is not a bijection onto [1, rows*columns].
	ErrInvalidGrid = errors.New("invalid seating grid")
)

// Grid is one seating arrangement: a rows x columns array of student identifiers.
// The zero value is an empty grid. Grids are immutable once built.
type Grid struct {
	rows  int
	cols  int
	seats []int // row-major
}

// Population returns the student identifiers 1..n in ascending order.
func Population(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i + 1
	}
	return ids
}

// FromRows builds a grid from explicit rows. Every row must have the same length
// and the cells must hold each identifier in [1, rows*columns] exactly once.
func FromRows(rows [][]int) (Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Grid{}, fmt.Errorf("%w: no seats", ErrInvalidGrid)
	}

	r, c := len(rows), len(rows[0])
	seats := make([]int, 0, r*c)
	seen := make([]bool, r*c+1)
	for i, row := range rows {
		if len(row) != c {
			return Grid{}, fmt.Errorf("%w: row %d has %d seats, want %d", ErrInvalidGrid, i, len(row), c)
		}
		for j, id := range row {
			if id < 1 || id > r*c {
				return Grid{}, fmt.Errorf("%w: student %d at (%d,%d) outside [1,%d]", ErrInvalidGrid, id, i, j, r*c)
			}
			if seen[id] {
				return Grid{}, fmt.Errorf("%w: student %d seated twice", ErrInvalidGrid, id)
			}
			seen[id] = true
			seats = append(seats, id)
		}
	}

	return Grid{rows: r, cols: c, seats: seats}, nil
}

// Rows returns the number of seat rows.
func (g Grid) Rows() int { return g.rows }

// Columns returns the number of seat columns.
func (g Grid) Columns() int { return g.cols }

// Len returns the number of seats.
func (g Grid) Len() int { return len(g.seats) }

// At returns the student seated at (row, col). It panics if the seat is out of range.
func (g Grid) At(row, col int) int {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		panic(fmt.Sprintf("seating: seat (%d,%d) outside %dx%d grid", row, col, g.rows, g.cols))
	}
	return g.seats[row*g.cols+col]
}

// Seat returns the position of a student, or ok=false if the student is not seated.
func (g Grid) Seat(student int) (row, col int, ok bool) {
	for i, id := range g.seats {
		if id == student {
			return i / g.cols, i % g.cols, true
		}
	}
	return 0, 0, false
}

// String renders the grid one row per line with right-aligned identifiers.
func (g Grid) String() string {
	width := len(fmt.Sprint(len(g.seats)))
	var sb strings.Builder
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%*d", width, g.At(i, j))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
