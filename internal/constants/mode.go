package constants

// Mode selects which projection of a run a batch aggregates.
type Mode string

const (
	// ModeAllStudents histograms the number of distinct at-risk students per run.
	ModeAllStudents Mode = "all-students"

	// ModeOneStudent histograms the number of at-risk pairs involving the tracked student.
	ModeOneStudent Mode = "one-student"
)

// Valid returns true if the mode is a recognized value.
func (m Mode) Valid() bool {
	switch m {
	case ModeAllStudents, ModeOneStudent:
		return true
	}
	return false
}

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}
