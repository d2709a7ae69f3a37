package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nvandessel/seatsim/internal/config"
)

// addParameterFlags registers the classroom and exposure flags shared by
// run and once. Defaults shown are the built-in ones; the config file and
// environment can change them.
func addParameterFlags(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().Int("rows", d.Classroom.Rows, "Seat rows")
	cmd.Flags().Int("columns", d.Classroom.Columns, "Seat columns")
	cmd.Flags().Int("tracked", d.Classroom.TrackedStudent, "Student reported individually (1 to rows*columns)")
	cmd.Flags().Int("iterations", d.Exposure.IterationCount, "Reseatings per run")
	cmd.Flags().Duration("iteration-time", d.Exposure.IterationTime, "Time spent in each arrangement")
	cmd.Flags().Float64("adjacent-factor", d.Exposure.AdjacentFactor, "Exposure weight for edge-sharing seats")
	cmd.Flags().Float64("diagonal-factor", d.Exposure.DiagonalFactor, "Exposure weight for corner-sharing seats")
	cmd.Flags().Duration("threshold", d.Exposure.RiskThreshold, "Cumulative exposure at which a pair is at risk")
	cmd.Flags().Uint64("seed", 0, "Seed for reproducible output (0 = random)")
}

// applyParameterFlags copies every explicitly set parameter flag into cfg.
func applyParameterFlags(cmd *cobra.Command, cfg *config.SeatSimConfig) {
	flags := cmd.Flags()
	if flags.Changed("rows") {
		cfg.Classroom.Rows, _ = flags.GetInt("rows")
	}
	if flags.Changed("columns") {
		cfg.Classroom.Columns, _ = flags.GetInt("columns")
	}
	if flags.Changed("tracked") {
		cfg.Classroom.TrackedStudent, _ = flags.GetInt("tracked")
	}
	if flags.Changed("iterations") {
		cfg.Exposure.IterationCount, _ = flags.GetInt("iterations")
	}
	if flags.Changed("iteration-time") {
		cfg.Exposure.IterationTime, _ = flags.GetDuration("iteration-time")
	}
	if flags.Changed("adjacent-factor") {
		cfg.Exposure.AdjacentFactor, _ = flags.GetFloat64("adjacent-factor")
	}
	if flags.Changed("diagonal-factor") {
		cfg.Exposure.DiagonalFactor, _ = flags.GetFloat64("diagonal-factor")
	}
	if flags.Changed("threshold") {
		cfg.Exposure.RiskThreshold, _ = flags.GetDuration("threshold")
	}
	if flags.Changed("seed") {
		cfg.Batch.Seed, _ = flags.GetUint64("seed")
	}
}

// signalContext returns a context cancelled on the first interrupt.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)

	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
