package constants

import "testing"

func TestMode_Valid(t *testing.T) {
	tests := []struct {
		mode Mode
		want bool
	}{
		{ModeAllStudents, true},
		{ModeOneStudent, true},
		{Mode(""), false},
		{Mode("everyone"), false},
		{Mode("ALL-STUDENTS"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := tt.mode.Valid(); got != tt.want {
				t.Errorf("Mode(%q).Valid() = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestMode_String(t *testing.T) {
	if got := ModeOneStudent.String(); got != "one-student" {
		t.Errorf("ModeOneStudent.String() = %q, want %q", got, "one-student")
	}
}
