package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/seatsim/internal/config"
	"github.com/nvandessel/seatsim/internal/logging"
	"github.com/nvandessel/seatsim/internal/pathutil"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "seatsim",
		Short: "Classroom seating exposure simulator",
		Long: `seatsim estimates how often students in a classroom accumulate risky
contact time when they are reseated at random several times per session.

Each run reseats the class for a number of iterations, credits every pair of
students who sit next to each other (edge or corner) with exposure time, and
flags pairs whose cumulative exposure reaches the risk threshold. A batch
repeats this many times and reports a histogram of the outcomes.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.seatsim/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: warn, info, debug, or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newOnceCmd(),
		newConfigCmd(),
		newServeCmd(),
	)

	return rootCmd
}

// loadConfig reads the configuration named by --config (or the default
// location) and applies --log-level. Callers validate after their own
// flag overrides.
func loadConfig(cmd *cobra.Command) (*config.SeatSimConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}

	return cfg, nil
}

// newLogger builds the stderr logger for cfg.
func newLogger(cmd *cobra.Command, cfg *config.SeatSimConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}

// openRunTrace opens the JSONL run trace for cfg. An explicit trace file wins;
// otherwise debug and trace levels write ~/.seatsim/traces/runs.jsonl.
func openRunTrace(cfg *config.SeatSimConfig) (*logging.RunTrace, error) {
	dir, err := pathutil.DefaultTraceDir()
	if err != nil {
		dir = ""
	}
	path := logging.TracePath(cfg.Logging.Level, cfg.Logging.TraceFile, dir)
	trace, err := logging.NewRunTrace(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file %s: %w", pathutil.RedactPath(path), err)
	}
	return trace, nil
}
