package mcp

import (
	"fmt"
	"time"

	"github.com/nvandessel/seatsim/internal/constants"
	"github.com/nvandessel/seatsim/internal/simulation"
)

// Parameters overrides the server's default classroom and exposure settings.
// Unset fields keep their defaults.
type Parameters struct {
	Rows           int      `json:"rows,omitempty" jsonschema:"Number of seat rows (default 6); rows*columns at most 2500"`
	Columns        int      `json:"columns,omitempty" jsonschema:"Number of seat columns (default 4)"`
	TrackedStudent int      `json:"tracked_student,omitempty" jsonschema:"Student reported individually, 1 to rows*columns (default 1)"`
	IterationCount int      `json:"iteration_count,omitempty" jsonschema:"Reseatings per run (default 4, at most 1000)"`
	IterationTime  string   `json:"iteration_time,omitempty" jsonschema:"Time in each arrangement as a Go duration, e.g. 15m"`
	AdjacentFactor *float64 `json:"adjacent_factor,omitempty" jsonschema:"Exposure weight for edge-sharing seats (default 1.0)"`
	DiagonalFactor *float64 `json:"diagonal_factor,omitempty" jsonschema:"Exposure weight for corner-sharing seats (default 0.5)"`
	RiskThreshold  string   `json:"risk_threshold,omitempty" jsonschema:"Cumulative pair exposure that counts as at risk, e.g. 20m"`
}

// apply returns base with the set fields of p replaced.
func (p Parameters) apply(base simulation.Config) (simulation.Config, error) {
	cfg := base
	if p.Rows != 0 {
		cfg.Rows = p.Rows
	}
	if p.Columns != 0 {
		cfg.Columns = p.Columns
	}
	if p.TrackedStudent != 0 {
		cfg.TrackedStudent = p.TrackedStudent
	}
	if p.IterationCount != 0 {
		cfg.IterationCount = p.IterationCount
	}
	if p.IterationTime != "" {
		d, err := time.ParseDuration(p.IterationTime)
		if err != nil {
			return simulation.Config{}, fmt.Errorf("iteration_time: %w", err)
		}
		cfg.IterationTime = d
	}
	if p.AdjacentFactor != nil {
		cfg.AdjacentExposureFactor = *p.AdjacentFactor
	}
	if p.DiagonalFactor != nil {
		cfg.DiagonalExposureFactor = *p.DiagonalFactor
	}
	if p.RiskThreshold != "" {
		d, err := time.ParseDuration(p.RiskThreshold)
		if err != nil {
			return simulation.Config{}, fmt.Errorf("risk_threshold: %w", err)
		}
		cfg.ExposureRiskThreshold = d
	}
	if err := cfg.Validate(); err != nil {
		return simulation.Config{}, err
	}
	if cfg.Population() > constants.MaxToolSeatCount {
		return simulation.Config{}, fmt.Errorf("%w: %dx%d grid exceeds %d seats", simulation.ErrInvalidConfig, cfg.Rows, cfg.Columns, constants.MaxToolSeatCount)
	}
	if cfg.IterationCount > constants.MaxToolIterationCount {
		return simulation.Config{}, fmt.Errorf("%w: iteration_count %d exceeds %d", simulation.ErrInvalidConfig, cfg.IterationCount, constants.MaxToolIterationCount)
	}
	return cfg, nil
}

// SeatsimRunInput defines the input for the seatsim_run tool.
type SeatsimRunInput struct {
	Parameters Parameters `json:"parameters,omitempty" jsonschema:"Overrides for the default classroom and exposure settings"`
	Seed       uint64     `json:"seed,omitempty" jsonschema:"Non-zero seed for a reproducible run"`
	Pairs      bool       `json:"pairs,omitempty" jsonschema:"Include every at-risk pair with its cumulative exposure"`
	Seatings   bool       `json:"seatings,omitempty" jsonschema:"Include the seating chart of every iteration"`
}

// SeatsimBatchInput defines the input for the seatsim_batch tool.
type SeatsimBatchInput struct {
	Parameters Parameters `json:"parameters,omitempty" jsonschema:"Overrides for the default classroom and exposure settings"`
	Runs       int        `json:"runs,omitempty" jsonschema:"Number of independent runs, at most 1000000 (default 50000)"`
	Workers    int        `json:"workers,omitempty" jsonschema:"Parallel workers (default: server setting)"`
	Mode       string     `json:"mode,omitempty" jsonschema:"Histogram key: all-students (at-risk students per run) or one-student (at-risk pairs of the tracked student)"`
	Seed       uint64     `json:"seed,omitempty" jsonschema:"Non-zero seed for a reproducible batch"`
	TraceFile  string     `json:"trace_file,omitempty" jsonschema:"JSONL file for per-run records, relative to ~/.seatsim/traces"`
}
