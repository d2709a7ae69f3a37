package simulation

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nvandessel/seatsim/internal/exposure"
	"github.com/nvandessel/seatsim/internal/seating"
)

var (
	// ErrNotEvaluated is returned when a view is requested before the run has
	// finished all iterations.
	ErrNotEvaluated = errors.New("simulation run not evaluated")

	// ErrAlreadyExecuted is returned when Execute is called twice on one run.
	ErrAlreadyExecuted = errors.New("simulation run already executed")
)

// State is the lifecycle position of a Run.
type State int

const (
	// Initialized runs have a validated config and a random source.
	Initialized State = iota
	// Iterating runs are reseating and accumulating exposure. A run whose
	// iteration failed stays here.
	Iterating
	// Evaluated runs have scanned the accumulator and can answer views.
	Evaluated
)

func (s State) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Iterating:
		return "iterating"
	case Evaluated:
		return "evaluated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PairExposure is an at-risk pair and its accumulated exposure.
type PairExposure struct {
	Pair  exposure.Pair
	Total time.Duration
}

// StudentsView is the all-students projection of an evaluated run.
type StudentsView struct {
	// Students holds every student in at least one at-risk pair, ascending.
	Students []int
	// TrackedAtRisk reports whether the tracked student is among them.
	TrackedAtRisk bool
}

// Count returns the number of at-risk students.
func (v StudentsView) Count() int {
	return len(v.Students)
}

// Outcome is the compact per-run result a batch aggregates.
type Outcome struct {
	AtRiskStudents int
	TrackedAtRisk  bool
	TrackedPairs   int
}

// Run is one simulation: IterationCount reseatings feeding a single accumulator.
// A Run is not safe for concurrent use.
type Run struct {
	cfg     Config
	sampler *seating.Sampler
	pass    *exposure.Pass
	acc     *exposure.Accumulator
	state   State
	grids   []seating.Grid
	atRisk  []exposure.Pair
}

// NewRun validates cfg and prepares a run drawing seatings from src.
func NewRun(cfg Config, src seating.Source) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.New("simulation run requires a random source")
	}
	return &Run{
		cfg:     cfg,
		sampler: seating.NewSampler(cfg.Rows, cfg.Columns, src),
		pass:    exposure.NewPass(cfg.Rows, cfg.Columns, cfg.Weights()),
		state:   Initialized,
	}, nil
}

// State returns the current lifecycle state.
func (r *Run) State() State {
	return r.state
}

// Config returns the run's configuration.
func (r *Run) Config() Config {
	return r.cfg
}

// Execute performs every iteration and evaluates the result. Any failure
// leaves the run in Iterating, where no view is available.
func (r *Run) Execute() error {
	if r.state != Initialized {
		return ErrAlreadyExecuted
	}

	r.state = Iterating
	r.acc = exposure.NewAccumulator()
	r.grids = make([]seating.Grid, 0, r.cfg.IterationCount)

	for i := 0; i < r.cfg.IterationCount; i++ {
		if err := r.iterate(); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}
	}

	r.atRisk = r.acc.AtLeast(r.cfg.ExposureRiskThreshold)
	r.state = Evaluated
	return nil
}

func (r *Run) iterate() error {
	grid, err := r.sampler.Shuffle()
	if err != nil {
		return fmt.Errorf("seating students: %w", err)
	}
	if err := r.pass.Apply(r.acc, grid); err != nil {
		return fmt.Errorf("accumulating exposure: %w", err)
	}
	r.grids = append(r.grids, grid)
	return nil
}

// AllStudents returns the distinct students appearing in any at-risk pair.
func (r *Run) AllStudents() (StudentsView, error) {
	if r.state != Evaluated {
		return StudentsView{}, ErrNotEvaluated
	}

	seen := make(map[int]bool, 2*len(r.atRisk))
	students := make([]int, 0, 2*len(r.atRisk))
	for _, p := range r.atRisk {
		for _, id := range p.Students() {
			if !seen[id] {
				seen[id] = true
				students = append(students, id)
			}
		}
	}
	slices.Sort(students)

	return StudentsView{
		Students:      students,
		TrackedAtRisk: seen[r.cfg.TrackedStudent],
	}, nil
}

// OneStudent returns the number of distinct at-risk pairs that include the
// tracked student.
func (r *Run) OneStudent() (int, error) {
	if r.state != Evaluated {
		return 0, ErrNotEvaluated
	}

	count := 0
	for _, p := range r.atRisk {
		if p.Contains(r.cfg.TrackedStudent) {
			count++
		}
	}
	return count, nil
}

// Outcome combines both views.
func (r *Run) Outcome() (Outcome, error) {
	view, err := r.AllStudents()
	if err != nil {
		return Outcome{}, err
	}
	pairs, err := r.OneStudent()
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		AtRiskStudents: view.Count(),
		TrackedAtRisk:  view.TrackedAtRisk,
		TrackedPairs:   pairs,
	}, nil
}

// AtRiskPairs returns the at-risk pairs with their totals, ordered by pair.
func (r *Run) AtRiskPairs() ([]PairExposure, error) {
	if r.state != Evaluated {
		return nil, ErrNotEvaluated
	}

	out := make([]PairExposure, len(r.atRisk))
	for i, p := range r.atRisk {
		out[i] = PairExposure{Pair: p, Total: r.acc.Total(p)}
	}
	return out, nil
}

// Exposure returns the accumulated exposure between students a and b.
func (r *Run) Exposure(a, b int) (time.Duration, error) {
	if r.state != Evaluated {
		return 0, ErrNotEvaluated
	}
	p, err := exposure.NewPair(a, b)
	if err != nil {
		return 0, err
	}
	return r.acc.Total(p), nil
}

// Grids returns the seating arrangement of each completed iteration.
func (r *Run) Grids() []seating.Grid {
	return r.grids
}
