package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/seatsim/internal/config"
	"github.com/nvandessel/seatsim/internal/constants"
	"github.com/nvandessel/seatsim/internal/report"
	"github.com/nvandessel/seatsim/internal/seating"
	"github.com/nvandessel/seatsim/internal/simulation"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch of independent simulations",
		Long: `Run many independent simulations and print a histogram of the outcome.

In all-students mode (the default) each run contributes the number of
distinct students involved in at least one at-risk pair. In one-student
mode each run contributes the number of at-risk pairs involving the tracked
student. Either way the report ends with the share of runs in which the
tracked student was at risk.

Examples:
  seatsim run                                  # 50,000 runs of the default classroom
  seatsim run --runs 1000 --seed 7             # reproducible batch
  seatsim run --mode one-student --tracked 12  # pairs at risk for student 12
  seatsim run --rows 5 --columns 5 --format yaml`,
		RunE: runBatch,
	}

	addParameterFlags(cmd)
	cmd.Flags().Int("runs", constants.DefaultBatchRunCount, "Number of independent runs")
	cmd.Flags().Int("workers", 0, "Parallel workers (0 = all CPUs)")
	cmd.Flags().String("mode", string(constants.ModeAllStudents), "Histogram key: all-students or one-student")
	cmd.Flags().String("format", string(report.FormatText), "Output format: text, json, or yaml")
	cmd.Flags().String("trace-file", "", "Append one JSONL record per run to this file")

	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyParameterFlags(cmd, cfg)
	if cmd.Flags().Changed("runs") {
		cfg.Batch.Runs, _ = cmd.Flags().GetInt("runs")
	}
	if cmd.Flags().Changed("workers") {
		cfg.Batch.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("trace-file") {
		cfg.Logging.TraceFile, _ = cmd.Flags().GetString("trace-file")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode := constants.Mode(modeFlag)
	if !mode.Valid() {
		return fmt.Errorf("invalid mode %q (valid: %s, %s)", modeFlag, constants.ModeAllStudents, constants.ModeOneStudent)
	}

	logger := newLogger(cmd, cfg)
	trace, err := openRunTrace(cfg)
	if err != nil {
		return err
	}
	defer trace.Close()

	batch, err := simulation.NewBatch(cfg.SimulationConfig(), simulation.BatchOptions{
		Runs:    cfg.Batch.Runs,
		Workers: cfg.Batch.Workers,
		Mode:    mode,
		Sources: sourcesFor(cfg),
		Logger:  logger,
		Trace:   trace,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == report.FormatText {
		fmt.Fprintln(out, "Running simulation...")
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	res, err := batch.Execute(ctx)
	if err != nil {
		return err
	}

	if format == report.FormatText {
		fmt.Fprintln(out, "Finished.")
		fmt.Fprintln(out)
	}
	return report.WriteBatch(out, res, format)
}

// outputFormat resolves --format, with --json taking precedence.
func outputFormat(cmd *cobra.Command) (report.Format, error) {
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return report.FormatJSON, nil
	}
	name, _ := cmd.Flags().GetString("format")
	return report.ParseFormat(name)
}

// sourcesFor returns seeded sources when the config carries a seed.
func sourcesFor(cfg *config.SeatSimConfig) seating.SourceFactory {
	if cfg.Batch.Seed != 0 {
		return seating.SeededSources(cfg.Batch.Seed)
	}
	return seating.CryptoSources()
}
