package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/seatsim/internal/constants"
	"github.com/nvandessel/seatsim/internal/logging"
	"github.com/nvandessel/seatsim/internal/seating"
)

// BatchOptions configures a batch of independent runs.
type BatchOptions struct {
	// Runs is the number of simulation runs (>= 1).
	Runs int

	// Workers is the number of goroutines; 0 means GOMAXPROCS.
	Workers int

	// Mode selects which per-run value the histogram counts.
	// Empty means constants.ModeAllStudents.
	Mode constants.Mode

	// Sources supplies each run's random source. Nil means crypto-keyed sources.
	Sources seating.SourceFactory

	// Logger receives progress messages. Nil discards them.
	Logger *slog.Logger

	// Trace, if non-nil, receives one record per run.
	Trace *logging.RunTrace
}

// BatchResult is the aggregate of a completed batch.
type BatchResult struct {
	ID                string         `json:"id" yaml:"id"`
	Mode              constants.Mode `json:"mode" yaml:"mode"`
	Runs              int            `json:"runs" yaml:"runs"`
	Histogram         []Bin          `json:"histogram" yaml:"histogram"`
	TrackedStudent    int            `json:"tracked_student" yaml:"tracked_student"`
	TrackedAtRiskRuns int            `json:"tracked_at_risk_runs" yaml:"tracked_at_risk_runs"`
	Elapsed           time.Duration  `json:"elapsed" yaml:"elapsed"`
	Config            Config         `json:"config" yaml:"config"`
}

// TrackedAtRiskPercent returns the share of runs in which the tracked student
// was at risk, as a percentage.
func (r *BatchResult) TrackedAtRiskPercent() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.TrackedAtRiskRuns) / float64(r.Runs) * 100
}

// Batch executes many independent simulation runs in parallel. Every run owns
// its accumulator; workers keep private tallies that are merged once under a
// lock when they finish.
type Batch struct {
	sim     *Simulator
	runs    int
	workers int
	mode    constants.Mode
	logger  *slog.Logger
	trace   *logging.RunTrace
}

// NewBatch validates cfg and opts.
func NewBatch(cfg Config, opts BatchOptions) (*Batch, error) {
	if opts.Runs < 1 {
		return nil, fmt.Errorf("%w: batch needs at least one run, got %d", ErrInvalidConfig, opts.Runs)
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("%w: worker count must be non-negative, got %d", ErrInvalidConfig, opts.Workers)
	}

	mode := opts.Mode
	if mode == "" {
		mode = constants.ModeAllStudents
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, mode)
	}

	sources := opts.Sources
	if sources == nil {
		sources = seating.CryptoSources()
	}
	sim, err := NewSimulator(cfg, sources)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, opts.Runs)

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Batch{
		sim:     sim,
		runs:    opts.Runs,
		workers: workers,
		mode:    mode,
		logger:  logger,
		trace:   opts.Trace,
	}, nil
}

// Workers returns the effective number of worker goroutines.
func (b *Batch) Workers() int {
	return b.workers
}

// tally is one worker's private share of the batch result.
type tally struct {
	histogram     *Histogram
	trackedAtRisk int
}

// Execute runs the whole batch. The first failing run cancels the rest and
// its error is returned; no partial result is produced.
func (b *Batch) Execute(ctx context.Context) (*BatchResult, error) {
	id := uuid.NewString()
	start := time.Now()
	b.logger.Info("batch started",
		"batch_id", id, "runs", b.runs, "workers", b.workers, "mode", b.mode)

	var (
		mu       sync.Mutex
		total    = tally{histogram: NewHistogram()}
		finished atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < b.workers; w++ {
		g.Go(func() error {
			local := tally{histogram: NewHistogram()}
			for i := w; i < b.runs; i += b.workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := b.runOne(id, i, &local); err != nil {
					return err
				}
				if n := finished.Add(1); n%constants.ProgressLogInterval == 0 {
					b.logger.Debug("batch progress", "batch_id", id, "finished", n, "runs", b.runs)
				}
			}

			mu.Lock()
			defer mu.Unlock()
			total.histogram.Merge(local.histogram)
			total.trackedAtRisk += local.trackedAtRisk
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			b.logger.Warn("batch cancelled", "batch_id", id, "finished", finished.Load())
		} else {
			b.logger.Error("batch failed", "batch_id", id, "error", err)
		}
		return nil, fmt.Errorf("batch %s: %w", id, err)
	}

	elapsed := time.Since(start)
	b.logger.Info("batch finished",
		"batch_id", id, "runs", b.runs, "elapsed", elapsed, "tracked_at_risk_runs", total.trackedAtRisk)

	return &BatchResult{
		ID:                id,
		Mode:              b.mode,
		Runs:              b.runs,
		Histogram:         total.histogram.Bins(),
		TrackedStudent:    b.sim.Config().TrackedStudent,
		TrackedAtRiskRuns: total.trackedAtRisk,
		Elapsed:           elapsed,
		Config:            b.sim.Config(),
	}, nil
}

func (b *Batch) runOne(batchID string, index int, t *tally) error {
	run, err := b.sim.simulate(index)
	if err != nil {
		return err
	}
	out, err := run.Outcome()
	if err != nil {
		return fmt.Errorf("run %d: %w", index, err)
	}

	key := out.AtRiskStudents
	if b.mode == constants.ModeOneStudent {
		key = out.TrackedPairs
	}
	t.histogram.Add(key, 1)
	if out.TrackedAtRisk {
		t.trackedAtRisk++
	}

	b.logger.Log(context.Background(), logging.LevelTrace, "run finished",
		"batch_id", batchID, "run", index, "at_risk_students", out.AtRiskStudents, "tracked_at_risk", out.TrackedAtRisk)
	b.trace.Log(map[string]any{
		"batch_id":         batchID,
		"run":              index,
		"at_risk_students": out.AtRiskStudents,
		"tracked_at_risk":  out.TrackedAtRisk,
		"tracked_pairs":    out.TrackedPairs,
	})
	return nil
}
