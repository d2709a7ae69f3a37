package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/seatsim/internal/report"
	"github.com/nvandessel/seatsim/internal/simulation"
)

func newOnceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single simulation and show both views of it",
		Long: `Run one simulation and print the at-risk students, whether the tracked
student is among them, and how many at-risk pairs involve the tracked
student. Both views come from the same seatings.

Examples:
  seatsim once --seed 7 --pairs      # reproducible run with every at-risk pair
  seatsim once --seatings            # also print each seating chart`,
		RunE: runOnce,
	}

	addParameterFlags(cmd)
	cmd.Flags().Bool("pairs", false, "List every at-risk pair with its cumulative exposure")
	cmd.Flags().Bool("seatings", false, "Print the seating chart of every iteration")
	cmd.Flags().String("format", string(report.FormatText), "Output format: text, json, or yaml")

	return cmd
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyParameterFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)
	sim, err := simulation.NewSimulator(cfg.SimulationConfig(), sourcesFor(cfg))
	if err != nil {
		return err
	}
	run, err := sim.Simulate()
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	logger.Debug("run evaluated", "state", run.State().String(), "iterations", len(run.Grids()))

	withPairs, _ := cmd.Flags().GetBool("pairs")
	withSeatings, _ := cmd.Flags().GetBool("seatings")
	rep, err := report.NewRunReport(run, withPairs, withSeatings)
	if err != nil {
		return err
	}

	return report.WriteRun(cmd.OutOrStdout(), rep, format)
}
