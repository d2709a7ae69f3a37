package simulation

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/nvandessel/seatsim/internal/seating"
)

// Simulator creates and executes runs for one configuration. Each run gets a
// fresh accumulator and the next source from the factory.
// It is safe for concurrent use if the source factory is.
type Simulator struct {
	cfg     Config
	sources seating.SourceFactory
	next    atomic.Int64
}

// NewSimulator validates cfg once so individual runs cannot fail on it.
func NewSimulator(cfg Config, sources seating.SourceFactory) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sources == nil {
		return nil, errors.New("simulator requires a source factory")
	}
	return &Simulator{cfg: cfg, sources: sources}, nil
}

// Config returns the simulator's configuration.
func (s *Simulator) Config() Config {
	return s.cfg
}

// Simulate executes the next run and returns it in the Evaluated state.
func (s *Simulator) Simulate() (*Run, error) {
	return s.simulate(int(s.next.Add(1) - 1))
}

func (s *Simulator) simulate(index int) (*Run, error) {
	src, err := s.sources(index)
	if err != nil {
		return nil, fmt.Errorf("run %d: creating random source: %w", index, err)
	}
	run, err := NewRun(s.cfg, src)
	if err != nil {
		return nil, fmt.Errorf("run %d: %w", index, err)
	}
	if err := run.Execute(); err != nil {
		return nil, fmt.Errorf("run %d: %w", index, err)
	}
	return run, nil
}

// RunSimulationForAllStudents executes one run and returns the number of
// distinct at-risk students and whether the tracked student is one of them.
func (s *Simulator) RunSimulationForAllStudents() (int, bool, error) {
	run, err := s.Simulate()
	if err != nil {
		return 0, false, err
	}
	view, err := run.AllStudents()
	if err != nil {
		return 0, false, err
	}
	return view.Count(), view.TrackedAtRisk, nil
}

// RunSimulationForOneStudent executes one run and returns the number of
// at-risk pairs that include the tracked student.
func (s *Simulator) RunSimulationForOneStudent() (int, error) {
	run, err := s.Simulate()
	if err != nil {
		return 0, err
	}
	return run.OneStudent()
}
