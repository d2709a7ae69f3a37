package simulation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/nvandessel/seatsim/internal/constants"
	"github.com/nvandessel/seatsim/internal/exposure"
)

// ErrInvalidConfig is returned when a configuration cannot describe a classroom.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config holds the parameters of a single simulation run.
type Config struct {
	// Rows and Columns size the classroom; Rows*Columns is the student population.
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`

	// IterationCount is the number of reseatings per run.
	IterationCount int `json:"iteration_count" yaml:"iteration_count"`

	// IterationTime is the time spent in each seating arrangement.
	IterationTime time.Duration `json:"iteration_time" yaml:"iteration_time"`

	// AdjacentExposureFactor scales IterationTime for edge-sharing seats.
	AdjacentExposureFactor float64 `json:"adjacent_exposure_factor" yaml:"adjacent_exposure_factor"`

	// DiagonalExposureFactor scales IterationTime for corner-sharing seats.
	DiagonalExposureFactor float64 `json:"diagonal_exposure_factor" yaml:"diagonal_exposure_factor"`

	// ExposureRiskThreshold is the inclusive lower bound for an at-risk pair.
	ExposureRiskThreshold time.Duration `json:"exposure_risk_threshold" yaml:"exposure_risk_threshold"`

	// TrackedStudent is the student whose outcome is reported separately.
	TrackedStudent int `json:"tracked_student" yaml:"tracked_student"`
}

// DefaultConfig returns the 24-student, one-hour classroom.
func DefaultConfig() Config {
	return Config{
		Rows:                   constants.DefaultRowCount,
		Columns:                constants.DefaultColumnCount,
		IterationCount:         constants.DefaultIterationCount,
		IterationTime:          constants.DefaultIterationTime,
		AdjacentExposureFactor: constants.DefaultAdjacentExposureFactor,
		DiagonalExposureFactor: constants.DefaultDiagonalExposureFactor,
		ExposureRiskThreshold:  constants.DefaultExposureRiskThreshold,
		TrackedStudent:         constants.DefaultTrackedStudent,
	}
}

// Population returns the number of students.
func (c Config) Population() int {
	return c.Rows * c.Columns
}

// Weights returns the per-iteration exposure weights.
func (c Config) Weights() exposure.Weights {
	return exposure.Weights{
		IterationTime:  c.IterationTime,
		AdjacentFactor: c.AdjacentExposureFactor,
		DiagonalFactor: c.DiagonalExposureFactor,
	}
}

// Validate checks that the configuration describes a classroom every student
// can be seated in.
func (c Config) Validate() error {
	if c.Rows < 1 || c.Columns < 1 {
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidConfig, c.Rows, c.Columns)
	}
	if c.Rows > math.MaxInt32/c.Columns {
		return fmt.Errorf("%w: %dx%d grid overflows the student population", ErrInvalidConfig, c.Rows, c.Columns)
	}
	if c.Population() < 2 {
		return fmt.Errorf("%w: need at least 2 students, got %d", ErrInvalidConfig, c.Population())
	}
	if c.IterationCount < 1 {
		return fmt.Errorf("%w: iteration count must be positive, got %d", ErrInvalidConfig, c.IterationCount)
	}
	if c.IterationTime <= 0 {
		return fmt.Errorf("%w: iteration time must be positive, got %v", ErrInvalidConfig, c.IterationTime)
	}
	if c.AdjacentExposureFactor < 0 || math.IsNaN(c.AdjacentExposureFactor) || math.IsInf(c.AdjacentExposureFactor, 0) {
		return fmt.Errorf("%w: adjacent exposure factor must be a non-negative number, got %v", ErrInvalidConfig, c.AdjacentExposureFactor)
	}
	if c.DiagonalExposureFactor < 0 || math.IsNaN(c.DiagonalExposureFactor) || math.IsInf(c.DiagonalExposureFactor, 0) {
		return fmt.Errorf("%w: diagonal exposure factor must be a non-negative number, got %v", ErrInvalidConfig, c.DiagonalExposureFactor)
	}
	// A pair shares at most one relation per seating, so its total is bounded
	// by IterationCount weighted iterations.
	worst := float64(c.IterationTime) * max(c.AdjacentExposureFactor, c.DiagonalExposureFactor) * float64(c.IterationCount)
	if worst >= math.MaxInt64 {
		return fmt.Errorf("%w: %d iterations of %v at factor %v overflow the exposure total",
			ErrInvalidConfig, c.IterationCount, c.IterationTime, max(c.AdjacentExposureFactor, c.DiagonalExposureFactor))
	}
	if c.ExposureRiskThreshold < 0 {
		return fmt.Errorf("%w: risk threshold must be non-negative, got %v", ErrInvalidConfig, c.ExposureRiskThreshold)
	}
	if c.TrackedStudent < 1 || c.TrackedStudent > c.Population() {
		return fmt.Errorf("%w: tracked student %d outside [1,%d]", ErrInvalidConfig, c.TrackedStudent, c.Population())
	}
	return nil
}
