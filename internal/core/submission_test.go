package core

import (
	"errors"
	"testing"
)

func TestSubmissionValidate(t *testing.T) {
	valid := baseSubmission()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid submission rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Submission)
		field  string
	}{
		{"empty collector", func(s *Submission) { s.Collector = "" }, "collector"},
		{"whitespace collector", func(s *Submission) { s.Collector = "\t " }, "collector"},
		{"empty fdi", func(s *Submission) { s.FDICode = "" }, "fdi_code"},
		{"long fdi", func(s *Submission) { s.FDICode = "111" }, "fdi_code"},
		{"letter fdi", func(s *Submission) { s.FDICode = "ab" }, "fdi_code"},
		{"unicode digit fdi", func(s *Submission) { s.FDICode = "١١" }, "fdi_code"},
		{"negative crown", func(s *Submission) { s.CrownHeightMM = -0.1 }, "crown_height_mm"},
		{"negative root", func(s *Submission) { s.RootLengthMM = -9 }, "root_length_mm"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := baseSubmission()
			tc.mutate(&sub)
			err := sub.Validate()
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestSubmissionValidateAllowsZeroMeasurements(t *testing.T) {
	sub := baseSubmission()
	sub.CrownHeightMM = 0
	sub.RootLengthMM = 0
	if err := sub.Validate(); err != nil {
		t.Fatalf("zero measurements should pass: %v", err)
	}
}

func TestSubmissionIdentity(t *testing.T) {
	sub := baseSubmission()
	identity := sub.identity(42)
	if identity.SequenceCount != 42 {
		t.Fatalf("sequence count %d", identity.SequenceCount)
	}
	if got := identity.USID(); got != "11-P-Mx-R-042" {
		t.Fatalf("identifier %q", got)
	}
}
