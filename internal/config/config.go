// Package config provides unified configuration loading for seatsim.
// It supports loading from YAML files and environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/seatsim/internal/constants"
	"github.com/nvandessel/seatsim/internal/logging"
	"github.com/nvandessel/seatsim/internal/simulation"
)

// SeatSimConfig contains all seatsim configuration settings.
type SeatSimConfig struct {
	// Classroom describes the seating grid and the tracked student.
	Classroom ClassroomConfig `json:"classroom" yaml:"classroom"`

	// Exposure contains the exposure model parameters.
	Exposure ExposureConfig `json:"exposure" yaml:"exposure"`

	// Batch controls how many runs are executed and on how many workers.
	Batch BatchConfig `json:"batch" yaml:"batch"`

	// Logging contains settings for operational logging and run tracing.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ClassroomConfig describes the classroom layout.
type ClassroomConfig struct {
	// Rows and Columns size the grid; their product is the student population.
	Rows    int `json:"rows" yaml:"rows"`
	Columns int `json:"columns" yaml:"columns"`

	// TrackedStudent is reported on individually. Range: 1 to Rows*Columns.
	TrackedStudent int `json:"tracked_student" yaml:"tracked_student"`
}

// ExposureConfig holds the exposure model parameters.
type ExposureConfig struct {
	// IterationCount is the number of reseatings per run.
	IterationCount int `json:"iteration_count" yaml:"iteration_count"`

	// IterationTime is the time spent in each arrangement, e.g. "15m".
	IterationTime time.Duration `json:"iteration_time" yaml:"iteration_time"`

	// AdjacentFactor weights edge-sharing seats.
	AdjacentFactor float64 `json:"adjacent_factor" yaml:"adjacent_factor"`

	// DiagonalFactor weights corner-sharing seats.
	DiagonalFactor float64 `json:"diagonal_factor" yaml:"diagonal_factor"`

	// RiskThreshold is the inclusive cumulative exposure that puts a pair at risk.
	RiskThreshold time.Duration `json:"risk_threshold" yaml:"risk_threshold"`
}

// MarshalJSON writes durations the way the YAML file does ("15m0s") rather
// than as nanosecond counts.
func (e ExposureConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		IterationCount int     `json:"iteration_count"`
		IterationTime  string  `json:"iteration_time"`
		AdjacentFactor float64 `json:"adjacent_factor"`
		DiagonalFactor float64 `json:"diagonal_factor"`
		RiskThreshold  string  `json:"risk_threshold"`
	}{
		IterationCount: e.IterationCount,
		IterationTime:  e.IterationTime.String(),
		AdjacentFactor: e.AdjacentFactor,
		DiagonalFactor: e.DiagonalFactor,
		RiskThreshold:  e.RiskThreshold.String(),
	})
}

// BatchConfig controls batch execution.
type BatchConfig struct {
	// Runs is the number of independent simulation runs.
	Runs int `json:"runs" yaml:"runs"`

	// Workers is the number of parallel workers; 0 uses every CPU.
	Workers int `json:"workers" yaml:"workers"`

	// Seed makes the batch reproducible when non-zero. Zero seeds every run
	// from crypto/rand.
	Seed uint64 `json:"seed" yaml:"seed"`
}

// LoggingConfig configures seatsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "warn", "info" (default), "debug", or "trace".
	// "debug" and "trace" write a JSONL run trace to ~/.seatsim/traces/runs.jsonl
	// unless TraceFile is set; "trace" also logs one line per simulation run.
	Level string `json:"level" yaml:"level"`

	// TraceFile, when set, receives a JSONL record for every run.
	// Supports ${VAR} syntax for env vars.
	TraceFile string `json:"trace_file,omitempty" yaml:"trace_file,omitempty"`
}

// Default returns a SeatSimConfig with the standard 24-student classroom.
func Default() *SeatSimConfig {
	return &SeatSimConfig{
		Classroom: ClassroomConfig{
			Rows:           constants.DefaultRowCount,
			Columns:        constants.DefaultColumnCount,
			TrackedStudent: constants.DefaultTrackedStudent,
		},
		Exposure: ExposureConfig{
			IterationCount: constants.DefaultIterationCount,
			IterationTime:  constants.DefaultIterationTime,
			AdjacentFactor: constants.DefaultAdjacentExposureFactor,
			DiagonalFactor: constants.DefaultDiagonalExposureFactor,
			RiskThreshold:  constants.DefaultExposureRiskThreshold,
		},
		Batch: BatchConfig{
			Runs:    constants.DefaultBatchRunCount,
			Workers: 0,
			Seed:    0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.seatsim/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".seatsim", "config.yaml"), nil
}

// Load loads configuration from the default location and environment variables.
// Order: defaults -> ~/.seatsim/config.yaml -> environment variables
func Load() (*SeatSimConfig, error) {
	config := Default()

	if configPath, err := DefaultPath(); err == nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFile loads a specific file and then applies environment overrides.
// An empty path behaves like Load.
func LoadFile(path string) (*SeatSimConfig, error) {
	if path == "" {
		return Load()
	}
	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*SeatSimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	config.Logging.TraceFile = expandEnvVars(config.Logging.TraceFile)

	return config, nil
}

// SaveToFile writes the configuration as YAML, creating parent directories.
func (c *SeatSimConfig) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// SimulationConfig returns the per-run parameters.
func (c *SeatSimConfig) SimulationConfig() simulation.Config {
	return simulation.Config{
		Rows:                   c.Classroom.Rows,
		Columns:                c.Classroom.Columns,
		IterationCount:         c.Exposure.IterationCount,
		IterationTime:          c.Exposure.IterationTime,
		AdjacentExposureFactor: c.Exposure.AdjacentFactor,
		DiagonalExposureFactor: c.Exposure.DiagonalFactor,
		ExposureRiskThreshold:  c.Exposure.RiskThreshold,
		TrackedStudent:         c.Classroom.TrackedStudent,
	}
}

// Validate checks that the configuration is valid. Classroom and exposure
// problems are reported with simulation.ErrInvalidConfig.
func (c *SeatSimConfig) Validate() error {
	if err := c.SimulationConfig().Validate(); err != nil {
		return err
	}

	if c.Batch.Runs < 1 {
		return fmt.Errorf("batch.runs must be positive, got %d", c.Batch.Runs)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers must be non-negative, got %d", c.Batch.Workers)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: warn, info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Lookup returns the value of a dotted key such as "exposure.iteration_time".
func (c *SeatSimConfig) Lookup(key string) (any, bool) {
	switch key {
	case "classroom.rows":
		return c.Classroom.Rows, true
	case "classroom.columns":
		return c.Classroom.Columns, true
	case "classroom.tracked_student":
		return c.Classroom.TrackedStudent, true
	case "exposure.iteration_count":
		return c.Exposure.IterationCount, true
	case "exposure.iteration_time":
		return c.Exposure.IterationTime.String(), true
	case "exposure.adjacent_factor":
		return c.Exposure.AdjacentFactor, true
	case "exposure.diagonal_factor":
		return c.Exposure.DiagonalFactor, true
	case "exposure.risk_threshold":
		return c.Exposure.RiskThreshold.String(), true
	case "batch.runs":
		return c.Batch.Runs, true
	case "batch.workers":
		return c.Batch.Workers, true
	case "batch.seed":
		return c.Batch.Seed, true
	case "logging.level":
		return c.Logging.Level, true
	case "logging.trace_file":
		return c.Logging.TraceFile, true
	}
	return nil, false
}

// applyEnvOverrides applies SEATSIM_* environment variable overrides.
// Malformed numeric values are reported rather than ignored.
func applyEnvOverrides(config *SeatSimConfig) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"SEATSIM_ROWS", &config.Classroom.Rows},
		{"SEATSIM_COLUMNS", &config.Classroom.Columns},
		{"SEATSIM_TRACKED_STUDENT", &config.Classroom.TrackedStudent},
		{"SEATSIM_ITERATIONS", &config.Exposure.IterationCount},
		{"SEATSIM_RUNS", &config.Batch.Runs},
		{"SEATSIM_WORKERS", &config.Batch.Workers},
	}
	for _, e := range ints {
		if v := os.Getenv(e.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			*e.dst = n
		}
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"SEATSIM_ADJACENT_FACTOR", &config.Exposure.AdjacentFactor},
		{"SEATSIM_DIAGONAL_FACTOR", &config.Exposure.DiagonalFactor},
	}
	for _, e := range floats {
		if v := os.Getenv(e.name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			*e.dst = f
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"SEATSIM_ITERATION_TIME", &config.Exposure.IterationTime},
		{"SEATSIM_RISK_THRESHOLD", &config.Exposure.RiskThreshold},
	}
	for _, e := range durations {
		if v := os.Getenv(e.name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", e.name, err)
			}
			*e.dst = d
		}
	}

	if v := os.Getenv("SEATSIM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("SEATSIM_SEED: %w", err)
		}
		config.Batch.Seed = seed
	}

	if v := os.Getenv("SEATSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}

	if v := os.Getenv("SEATSIM_TRACE_FILE"); v != "" {
		config.Logging.TraceFile = expandEnvVars(v)
	}

	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
