// Package simulation runs the classroom exposure Monte Carlo study.
//
// A Run reseats the class IterationCount times, folding each arrangement's
// neighbor exposure into one accumulator, then evaluates every pair against the
// risk threshold. Runs move through three states:
//
//	Initialized -> Iterating -> Evaluated
//
// Once evaluated, a run answers two independent queries from the same
// accumulated state: which students are in any at-risk pair (AllStudents), and
// how many at-risk pairs include the tracked student (OneStudent).
//
// A Batch executes many independent runs on a worker pool and histograms the
// per-run results. Runs share no mutable state; only the histogram merge is
// synchronized.
//
// Usage:
//
//	sim, err := simulation.NewSimulator(simulation.DefaultConfig(), seating.CryptoSources())
//	if err != nil {
//	    return err
//	}
//	atRisk, trackedAtRisk, err := sim.RunSimulationForAllStudents()
package simulation
