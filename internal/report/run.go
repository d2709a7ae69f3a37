package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/seatsim/internal/simulation"
)

// PairReport is one at-risk pair.
type PairReport struct {
	Students [2]int `json:"students" yaml:"students,flow"`
	Exposure string `json:"exposure" yaml:"exposure"`
}

// RunReport is both views of one evaluated run.
type RunReport struct {
	Config         ConfigReport `json:"config" yaml:"config"`
	AtRiskStudents []int        `json:"at_risk_students" yaml:"at_risk_students,flow"`
	AtRiskCount    int          `json:"at_risk_count" yaml:"at_risk_count"`
	TrackedStudent int          `json:"tracked_student" yaml:"tracked_student"`
	TrackedAtRisk  bool         `json:"tracked_at_risk" yaml:"tracked_at_risk"`
	TrackedPairs   int          `json:"tracked_pairs" yaml:"tracked_pairs"`
	Pairs          []PairReport `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Seatings       []string     `json:"seatings,omitempty" yaml:"seatings,omitempty"`
}

// NewRunReport reads both views of run. Pairs and seatings are included on request.
func NewRunReport(run *simulation.Run, withPairs, withSeatings bool) (RunReport, error) {
	view, err := run.AllStudents()
	if err != nil {
		return RunReport{}, err
	}
	tracked, err := run.OneStudent()
	if err != nil {
		return RunReport{}, err
	}

	rep := RunReport{
		Config:         NewConfigReport(run.Config()),
		AtRiskStudents: view.Students,
		AtRiskCount:    view.Count(),
		TrackedStudent: run.Config().TrackedStudent,
		TrackedAtRisk:  view.TrackedAtRisk,
		TrackedPairs:   tracked,
	}

	if withPairs {
		pairs, err := run.AtRiskPairs()
		if err != nil {
			return RunReport{}, err
		}
		rep.Pairs = make([]PairReport, len(pairs))
		for i, pe := range pairs {
			rep.Pairs[i] = PairReport{Students: pe.Pair.Students(), Exposure: pe.Total.String()}
		}
	}

	if withSeatings {
		for _, g := range run.Grids() {
			rep.Seatings = append(rep.Seatings, g.String())
		}
	}

	return rep, nil
}

// WriteRun renders a single-run report.
func WriteRun(w io.Writer, rep RunReport, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, rep)
	case FormatYAML:
		return writeYAML(w, rep)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "At-risk students: %d %v\n", rep.AtRiskCount, rep.AtRiskStudents)
	fmt.Fprintf(&sb, "Tracked student %d at risk: %v\n", rep.TrackedStudent, rep.TrackedAtRisk)
	fmt.Fprintf(&sb, "At-risk pairs with tracked student: %d\n", rep.TrackedPairs)

	if len(rep.Pairs) > 0 {
		sb.WriteString("\nAt-risk pairs:\n")
		for _, p := range rep.Pairs {
			fmt.Fprintf(&sb, "  %d:%d  %s\n", p.Students[0], p.Students[1], p.Exposure)
		}
	}

	for i, s := range rep.Seatings {
		fmt.Fprintf(&sb, "\nIteration %d:\n%s", i+1, s)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
