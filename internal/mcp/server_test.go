package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandessel/seatsim/internal/config"
	"github.com/nvandessel/seatsim/internal/logging"
	"github.com/nvandessel/seatsim/internal/pathutil"
	"github.com/nvandessel/seatsim/internal/ratelimit"
	"github.com/nvandessel/seatsim/internal/simulation"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(&Config{Name: "seatsim-test", Version: "v0.0.0-test"})
	require.NoError(t, err)
	return s
}

func smallClassroom() Parameters {
	return Parameters{Rows: 2, Columns: 2, RiskThreshold: "20m"}
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.server)
	assert.Equal(t, config.Default(), s.defaults)
	assert.Contains(t, s.toolLimiters, "seatsim_run")
	assert.Contains(t, s.toolLimiters, "seatsim_batch")
}

func TestNewServer_Errors(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	bad := config.Default()
	bad.Classroom.TrackedStudent = 0
	_, err = NewServer(&Config{Name: "seatsim-test", Defaults: bad})
	assert.ErrorIs(t, err, simulation.ErrInvalidConfig)
}

func TestParametersApply(t *testing.T) {
	diag := 0.0
	cfg, err := Parameters{
		Rows:           3,
		Columns:        5,
		TrackedStudent: 15,
		IterationCount: 2,
		IterationTime:  "30m",
		DiagonalFactor: &diag,
		RiskThreshold:  "1h",
	}.apply(simulation.DefaultConfig())
	require.NoError(t, err)

	want := simulation.Config{
		Rows:                   3,
		Columns:                5,
		IterationCount:         2,
		IterationTime:          30 * time.Minute,
		AdjacentExposureFactor: 1.0,
		DiagonalExposureFactor: 0,
		ExposureRiskThreshold:  time.Hour,
		TrackedStudent:         15,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("apply() mismatch (-want +got):\n%s", diff)
	}

	_, err = Parameters{IterationTime: "quarter hour"}.apply(simulation.DefaultConfig())
	assert.ErrorContains(t, err, "iteration_time")

	_, err = Parameters{TrackedStudent: 25}.apply(simulation.DefaultConfig())
	assert.ErrorIs(t, err, simulation.ErrInvalidConfig)
}

func TestHandleSeatsimRun_SmallClassroom(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleSeatsimRun(context.Background(), nil, SeatsimRunInput{
		Parameters: smallClassroom(),
		Seed:       3,
		Pairs:      true,
		Seatings:   true,
	})
	require.NoError(t, err)

	// Every pair in a 2x2 room touches in every arrangement.
	assert.Equal(t, []int{1, 2, 3, 4}, out.AtRiskStudents)
	assert.Equal(t, 4, out.AtRiskCount)
	assert.True(t, out.TrackedAtRisk)
	assert.Equal(t, 3, out.TrackedPairs)
	assert.Len(t, out.Pairs, 6)
	assert.Len(t, out.Seatings, 4)

	for _, p := range out.Pairs {
		d, err := time.ParseDuration(p.Exposure)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, 20*time.Minute, "pair %v", p.Students)
	}
}

func TestHandleSeatsimRun_SeedIsReproducible(t *testing.T) {
	s := newTestServer(t)
	in := SeatsimRunInput{Seed: 42, Pairs: true, Seatings: true}

	_, first, err := s.handleSeatsimRun(context.Background(), nil, in)
	require.NoError(t, err)
	_, second, err := s.handleSeatsimRun(context.Background(), nil, in)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("seeded runs differ (-first +second):\n%s", diff)
	}
}

func TestHandleSeatsimRun_InvalidParameters(t *testing.T) {
	huge := 1e12
	tests := []struct {
		name   string
		params Parameters
	}{
		{"single seat", Parameters{Rows: 1, Columns: 1}},
		{"too many seats", Parameters{Rows: 40_000, Columns: 40_000}},
		{"just over seat cap", Parameters{Rows: 51, Columns: 50}},
		{"too many iterations", Parameters{IterationCount: 5_000}},
		{"unbounded iterations", Parameters{IterationCount: 2_000_000_000}},
		{"overflowing adjacent factor", Parameters{AdjacentFactor: &huge}},
		{"overflowing iteration time", Parameters{Rows: 1, Columns: 2, IterationTime: "2000000h", IterationCount: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			_, _, err := s.handleSeatsimRun(context.Background(), nil, SeatsimRunInput{Parameters: tt.params, Seed: 1})
			assert.ErrorIs(t, err, simulation.ErrInvalidConfig)

			_, _, err = s.handleSeatsimBatch(context.Background(), nil, SeatsimBatchInput{Parameters: tt.params, Runs: 10, Seed: 1})
			assert.ErrorIs(t, err, simulation.ErrInvalidConfig)
		})
	}
}

func TestParametersApply_AtToolLimits(t *testing.T) {
	cfg, err := Parameters{Rows: 50, Columns: 50, IterationCount: 1_000}.apply(simulation.DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 2_500, cfg.Population())
	assert.Equal(t, 1_000, cfg.IterationCount)
}

func TestHandleSeatsimBatch(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleSeatsimBatch(context.Background(), nil, SeatsimBatchInput{
		Parameters: smallClassroom(),
		Runs:       100,
		Workers:    3,
		Seed:       9,
	})
	require.NoError(t, err)

	assert.Equal(t, 100, out.Runs)
	assert.Equal(t, []simulation.Bin{{Key: 4, Count: 100}}, out.Histogram)
	assert.Equal(t, 100.0, out.TrackedAtRiskPercent)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "20m0s", out.Config.ExposureRiskThreshold)
}

func TestHandleSeatsimBatch_OneStudentMode(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleSeatsimBatch(context.Background(), nil, SeatsimBatchInput{
		Parameters: smallClassroom(),
		Runs:       10,
		Mode:       "one-student",
		Seed:       9,
	})
	require.NoError(t, err)
	assert.Equal(t, []simulation.Bin{{Key: 3, Count: 10}}, out.Histogram)
}

func TestHandleSeatsimBatch_SeedIsReproducible(t *testing.T) {
	s := newTestServer(t)

	in := SeatsimBatchInput{Runs: 200, Seed: 2024}
	_, first, err := s.handleSeatsimBatch(context.Background(), nil, in)
	require.NoError(t, err)

	in.Workers = 1
	_, second, err := s.handleSeatsimBatch(context.Background(), nil, in)
	require.NoError(t, err)

	assert.Equal(t, first.Histogram, second.Histogram)
	assert.Equal(t, first.TrackedAtRiskRuns, second.TrackedAtRiskRuns)
}

func TestHandleSeatsimBatch_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   SeatsimBatchInput
	}{
		{"too many runs", SeatsimBatchInput{Runs: 1_000_001}},
		{"negative runs", SeatsimBatchInput{Runs: -5}},
		{"unknown mode", SeatsimBatchInput{Runs: 10, Mode: "everyone"}},
		{"negative workers", SeatsimBatchInput{Runs: 10, Workers: -1}},
		{"bad threshold", SeatsimBatchInput{Runs: 10, Parameters: Parameters{RiskThreshold: "soon"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			_, _, err := s.handleSeatsimBatch(context.Background(), nil, tt.in)
			assert.Error(t, err)
		})
	}
}

func TestHandleSeatsimBatch_Cancelled(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.handleSeatsimBatch(ctx, nil, SeatsimBatchInput{Runs: 1000, Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimited(t *testing.T) {
	s := newTestServer(t)
	s.toolLimiters = ratelimit.ToolLimiters{
		"seatsim_run":   ratelimit.NewLimiter(0, 1),
		"seatsim_batch": ratelimit.NewLimiter(0, 1),
	}

	_, _, err := s.handleSeatsimRun(context.Background(), nil, SeatsimRunInput{Seed: 1})
	require.NoError(t, err)
	_, _, err = s.handleSeatsimRun(context.Background(), nil, SeatsimRunInput{Seed: 1})
	assert.ErrorIs(t, err, ratelimit.ErrRateLimited)

	// 200k runs cost two tokens, more than the bucket holds.
	_, _, err = s.handleSeatsimBatch(context.Background(), nil, SeatsimBatchInput{Runs: 200_000, Seed: 1})
	assert.ErrorIs(t, err, ratelimit.ErrRateLimited)
}

func TestSourcesFor(t *testing.T) {
	defaults := config.Default()
	defaults.Batch.Seed = 5
	s, err := NewServer(&Config{Name: "seatsim-test", Defaults: defaults})
	require.NoError(t, err)

	draw := func(seed uint64) int {
		src, err := s.sourcesFor(seed)(0)
		require.NoError(t, err)
		return src.IntN(1 << 30)
	}

	// The configured seed makes calls without a seed reproducible.
	assert.Equal(t, draw(0), draw(0))
	assert.Equal(t, draw(5), draw(0))
	assert.Equal(t, draw(6), draw(6))
}

func TestAuditTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	trace, err := logging.NewRunTrace(path)
	require.NoError(t, err)

	s, err := NewServer(&Config{Name: "seatsim-test", Trace: trace})
	require.NoError(t, err)

	_, _, err = s.handleSeatsimBatch(context.Background(), nil, SeatsimBatchInput{
		Parameters: smallClassroom(),
		Runs:       3,
		Seed:       1,
	})
	require.NoError(t, err)
	_, _, err = s.handleSeatsimRun(context.Background(), nil, SeatsimRunInput{
		Parameters: Parameters{TrackedStudent: 99},
	})
	require.Error(t, err)
	require.NoError(t, trace.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var runs int
	var calls []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		if rec["event"] == "tool_call" {
			calls = append(calls, rec)
		} else {
			runs++
		}
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, 3, runs)
	require.Len(t, calls, 2)
	assert.Equal(t, "seatsim_batch", calls[0]["tool"])
	assert.Equal(t, "success", calls[0]["status"])
	assert.Equal(t, "seatsim_run", calls[1]["tool"])
	assert.Equal(t, "error", calls[1]["status"])
	assert.Contains(t, calls[1]["error"], "tracked student")

	params, ok := calls[1]["params"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 99.0, params["tracked_student"])
}

func TestHandleSeatsimBatch_TraceFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewServer(&Config{Name: "seatsim-test", TraceDir: dir})
	require.NoError(t, err)

	_, _, err = s.handleSeatsimBatch(context.Background(), nil, SeatsimBatchInput{
		Runs:      25,
		Seed:      4,
		TraceFile: "nightly/runs.jsonl",
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "nightly", "runs.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 25, bytes.Count(data, []byte("\n")))

	_, _, err = s.handleSeatsimBatch(context.Background(), nil, SeatsimBatchInput{
		Runs:      1,
		TraceFile: "../outside.jsonl",
	})
	assert.ErrorIs(t, err, pathutil.ErrOutsideAllowed)
}
