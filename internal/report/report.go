// Package report renders simulation results as text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/seatsim/internal/constants"
	"github.com/nvandessel/seatsim/internal/simulation"
)

// Format is an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a flag value to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (valid: text, json, yaml)", s)
}

// ConfigReport is a simulation.Config with human-readable durations.
type ConfigReport struct {
	Rows                   int     `json:"rows" yaml:"rows"`
	Columns                int     `json:"columns" yaml:"columns"`
	IterationCount         int     `json:"iteration_count" yaml:"iteration_count"`
	IterationTime          string  `json:"iteration_time" yaml:"iteration_time"`
	AdjacentExposureFactor float64 `json:"adjacent_exposure_factor" yaml:"adjacent_exposure_factor"`
	DiagonalExposureFactor float64 `json:"diagonal_exposure_factor" yaml:"diagonal_exposure_factor"`
	ExposureRiskThreshold  string  `json:"exposure_risk_threshold" yaml:"exposure_risk_threshold"`
	TrackedStudent         int     `json:"tracked_student" yaml:"tracked_student"`
}

// NewConfigReport converts cfg for display.
func NewConfigReport(cfg simulation.Config) ConfigReport {
	return ConfigReport{
		Rows:                   cfg.Rows,
		Columns:                cfg.Columns,
		IterationCount:         cfg.IterationCount,
		IterationTime:          cfg.IterationTime.String(),
		AdjacentExposureFactor: cfg.AdjacentExposureFactor,
		DiagonalExposureFactor: cfg.DiagonalExposureFactor,
		ExposureRiskThreshold:  cfg.ExposureRiskThreshold.String(),
		TrackedStudent:         cfg.TrackedStudent,
	}
}

// BatchReport is the serializable form of a batch result.
type BatchReport struct {
	ID                   string           `json:"id" yaml:"id"`
	Mode                 constants.Mode   `json:"mode" yaml:"mode"`
	Runs                 int              `json:"runs" yaml:"runs"`
	Histogram            []simulation.Bin `json:"histogram" yaml:"histogram"`
	TrackedStudent       int              `json:"tracked_student" yaml:"tracked_student"`
	TrackedAtRiskRuns    int              `json:"tracked_at_risk_runs" yaml:"tracked_at_risk_runs"`
	TrackedAtRiskPercent float64          `json:"tracked_at_risk_percent" yaml:"tracked_at_risk_percent"`
	Elapsed              string           `json:"elapsed" yaml:"elapsed"`
	Config               ConfigReport     `json:"config" yaml:"config"`
}

// NewBatchReport converts res for display. The percentage is rounded to two places.
func NewBatchReport(res *simulation.BatchResult) BatchReport {
	return BatchReport{
		ID:                   res.ID,
		Mode:                 res.Mode,
		Runs:                 res.Runs,
		Histogram:            res.Histogram,
		TrackedStudent:       res.TrackedStudent,
		TrackedAtRiskRuns:    res.TrackedAtRiskRuns,
		TrackedAtRiskPercent: roundPercent(res.TrackedAtRiskPercent()),
		Elapsed:              res.Elapsed.String(),
		Config:               NewConfigReport(res.Config),
	}
}

// WriteBatch renders a batch result.
func WriteBatch(w io.Writer, res *simulation.BatchResult, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, NewBatchReport(res))
	case FormatYAML:
		return writeYAML(w, NewBatchReport(res))
	}
	return writeBatchText(w, res)
}

// writeBatchText prints one "key: count" line per histogram bin followed by
// the tracked student's share of at-risk runs.
func writeBatchText(w io.Writer, res *simulation.BatchResult) error {
	var sb strings.Builder
	sb.WriteString("Results:\n")
	for _, bin := range res.Histogram {
		fmt.Fprintf(&sb, "%d: %d\n", bin.Key, bin.Count)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Tracked student was exposed %s%% of the time.\n", FormatPercent(res.TrackedAtRiskPercent()))

	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatPercent renders p with exactly two decimals.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

func roundPercent(p float64) float64 {
	return math.Round(p*100) / 100
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
