// Package mcp provides an MCP (Model Context Protocol) server for seatsim.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/seatsim/internal/config"
	"github.com/nvandessel/seatsim/internal/logging"
	"github.com/nvandessel/seatsim/internal/pathutil"
	"github.com/nvandessel/seatsim/internal/ratelimit"
	"github.com/nvandessel/seatsim/internal/seating"
)

// Server wraps the MCP SDK server and exposes the simulator as tools.
type Server struct {
	server       *sdk.Server
	defaults     *config.SeatSimConfig
	sources      seating.SourceFactory
	logger       *slog.Logger
	trace        *logging.RunTrace
	traceDir     string
	toolLimiters ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "seatsim")
	Version string // Server version

	// Defaults supplies every parameter a tool call does not override.
	// Nil means config.Default().
	Defaults *config.SeatSimConfig

	// Sources overrides random source selection for calls without a seed.
	// Nil means seeded sources when Defaults.Batch.Seed is set, crypto otherwise.
	Sources seating.SourceFactory

	// Logger receives tool audit lines and batch progress. Nil discards them.
	Logger *slog.Logger

	// Trace, if non-nil, receives per-run and per-call records.
	// The server does not close it.
	Trace *logging.RunTrace

	// TraceDir confines the trace_file a batch call may request.
	// Empty means ~/.seatsim/traces.
	TraceDir string
}

// NewServer creates a new MCP server with the seatsim tools registered.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("mcp server config is required")
	}

	defaults := cfg.Defaults
	if defaults == nil {
		defaults = config.Default()
	}
	if err := defaults.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	traceDir := cfg.TraceDir
	if traceDir == "" {
		if dir, err := pathutil.DefaultTraceDir(); err == nil {
			traceDir = dir
		}
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		defaults:     defaults,
		sources:      cfg.Sources,
		logger:       logger,
		trace:        cfg.Trace,
		traceDir:     traceDir,
		toolLimiters: ratelimit.NewToolLimiters(),
	}

	s.registerTools()

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			s.logger.Info("shutting down mcp server", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("mcp server listening on stdio")
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
