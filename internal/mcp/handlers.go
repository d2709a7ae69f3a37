package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/seatsim/internal/constants"
	"github.com/nvandessel/seatsim/internal/logging"
	"github.com/nvandessel/seatsim/internal/pathutil"
	"github.com/nvandessel/seatsim/internal/ratelimit"
	"github.com/nvandessel/seatsim/internal/report"
	"github.com/nvandessel/seatsim/internal/seating"
	"github.com/nvandessel/seatsim/internal/simulation"
)

// registerTools registers all seatsim MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "seatsim_run",
		Description: "Simulate one class session: reseat the classroom at random each iteration and report which students accumulated at-risk exposure",
	}, s.handleSeatsimRun)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "seatsim_batch",
		Description: "Run many independent class sessions and return a histogram of at-risk outcomes plus how often the tracked student was at risk",
	}, s.handleSeatsimBatch)
}

// sourcesFor picks the random sources for a call. A call seed wins over the
// server's configured sources and seed.
func (s *Server) sourcesFor(seed uint64) seating.SourceFactory {
	switch {
	case seed != 0:
		return seating.SeededSources(seed)
	case s.sources != nil:
		return s.sources
	case s.defaults.Batch.Seed != 0:
		return seating.SeededSources(s.defaults.Batch.Seed)
	}
	return seating.CryptoSources()
}

// handleSeatsimRun implements the seatsim_run tool.
func (s *Server) handleSeatsimRun(ctx context.Context, req *sdk.CallToolRequest, args SeatsimRunInput) (_ *sdk.CallToolResult, _ report.RunReport, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("seatsim_run", start, retErr, auditParams(args.Parameters, map[string]any{
			"seeded": args.Seed != 0, "pairs": args.Pairs, "seatings": args.Seatings,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "seatsim_run"); err != nil {
		return nil, report.RunReport{}, err
	}

	cfg, err := args.Parameters.apply(s.defaults.SimulationConfig())
	if err != nil {
		return nil, report.RunReport{}, err
	}

	sim, err := simulation.NewSimulator(cfg, s.sourcesFor(args.Seed))
	if err != nil {
		return nil, report.RunReport{}, err
	}
	run, err := sim.Simulate()
	if err != nil {
		return nil, report.RunReport{}, fmt.Errorf("simulation failed: %w", err)
	}

	rep, err := report.NewRunReport(run, args.Pairs, args.Seatings)
	if err != nil {
		return nil, report.RunReport{}, err
	}
	return nil, rep, nil
}

// handleSeatsimBatch implements the seatsim_batch tool.
func (s *Server) handleSeatsimBatch(ctx context.Context, req *sdk.CallToolRequest, args SeatsimBatchInput) (_ *sdk.CallToolResult, _ report.BatchReport, retErr error) {
	start := time.Now()

	runs := args.Runs
	if runs == 0 {
		runs = s.defaults.Batch.Runs
	}
	mode := constants.Mode(args.Mode)
	if mode == "" {
		mode = constants.ModeAllStudents
	}

	defer func() {
		s.auditTool("seatsim_batch", start, retErr, auditParams(args.Parameters, map[string]any{
			"runs": runs, "mode": mode.String(), "seeded": args.Seed != 0, "trace_file": args.TraceFile != "",
		}))
	}()

	if runs < 1 || runs > constants.MaxToolBatchRunCount {
		return nil, report.BatchReport{}, fmt.Errorf("runs must be between 1 and %d, got %d", constants.MaxToolBatchRunCount, runs)
	}
	if !mode.Valid() {
		return nil, report.BatchReport{}, fmt.Errorf("invalid mode %q (valid: %s, %s)", args.Mode, constants.ModeAllStudents, constants.ModeOneStudent)
	}
	if args.Workers < 0 {
		return nil, report.BatchReport{}, fmt.Errorf("workers must be non-negative, got %d", args.Workers)
	}

	if err := ratelimit.CheckCost(s.toolLimiters, "seatsim_batch", ratelimit.BatchCost(runs)); err != nil {
		return nil, report.BatchReport{}, err
	}

	cfg, err := args.Parameters.apply(s.defaults.SimulationConfig())
	if err != nil {
		return nil, report.BatchReport{}, err
	}

	workers := args.Workers
	if workers == 0 {
		workers = s.defaults.Batch.Workers
	}

	trace := s.trace
	if args.TraceFile != "" {
		callTrace, err := s.openCallTrace(args.TraceFile)
		if err != nil {
			return nil, report.BatchReport{}, err
		}
		defer callTrace.Close()
		trace = callTrace
	}

	batch, err := simulation.NewBatch(cfg, simulation.BatchOptions{
		Runs:    runs,
		Workers: workers,
		Mode:    mode,
		Sources: s.sourcesFor(args.Seed),
		Logger:  s.logger,
		Trace:   trace,
	})
	if err != nil {
		return nil, report.BatchReport{}, err
	}

	res, err := batch.Execute(ctx)
	if err != nil {
		return nil, report.BatchReport{}, err
	}
	return nil, report.NewBatchReport(res), nil
}

// openCallTrace opens a client-requested trace file inside the trace directory.
func (s *Server) openCallTrace(name string) (*logging.RunTrace, error) {
	if s.traceDir == "" {
		return nil, fmt.Errorf("trace_file: no trace directory available")
	}
	path, err := pathutil.ResolveTracePath(name, s.traceDir)
	if err != nil {
		return nil, fmt.Errorf("trace_file: %w", err)
	}
	trace, err := logging.NewRunTrace(path)
	if err != nil {
		return nil, fmt.Errorf("trace_file: opening %s: %w", pathutil.RedactPath(path), err)
	}
	return trace, nil
}
