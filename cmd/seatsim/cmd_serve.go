package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/seatsim/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Serve the simulator to MCP clients over stdin/stdout.

Tools:
  seatsim_run    one run with both views, optional at-risk pairs and seatings
  seatsim_batch  a batch of up to 1,000,000 runs with a histogram

Parameters a call does not set come from the loaded configuration. Logs go
to stderr so they never interleave with the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			trace, err := openRunTrace(cfg)
			if err != nil {
				return err
			}
			defer trace.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "seatsim",
				Version:  version,
				Defaults: cfg,
				Logger:   newLogger(cmd, cfg),
				Trace:    trace,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}

			return server.Run(cmd.Context())
		},
	}
}
