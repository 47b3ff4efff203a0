package core

import (
	"dentalatlas/pkg/domain"
	"io"
	"strings"
	"unicode"
)

// MediaUpload carries one file streamed in by a submitter.
type MediaUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// Submission is the raw intake payload collected by the form surface. Media
// slots accept either a streamed upload or an external link; when both are
// present the upload wins, matching the observed submission behavior.
type Submission struct {
	Collector      string
	Source         string
	PatientGender  PatientGender
	MedicalHistory string
	Dentition      Dentition
	Arch           Arch
	Side           Side
	ToothClass     ToothClass
	FDICode        string
	CrownHeightMM  float64
	RootLengthMM   float64
	Image          *MediaUpload
	ImageLink      string
	CBCT           *MediaUpload
	CBCTLink       string
}

// Validate enforces the submission boundary constraints. Identifier
// generation itself is total and unvalidated; everything that can reject a
// submission happens here, before generation or append is attempted.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.Collector) == "" {
		return ValidationError{Field: "collector", Reason: "required"}
	}
	if len(s.FDICode) != 2 {
		return ValidationError{Field: "fdi_code", Reason: "must be exactly 2 digits"}
	}
	for _, c := range s.FDICode {
		if c > unicode.MaxASCII || !unicode.IsDigit(c) {
			return ValidationError{Field: "fdi_code", Reason: "must be exactly 2 digits"}
		}
	}
	if s.CrownHeightMM < 0 {
		return ValidationError{Field: "crown_height_mm", Reason: "must be non-negative"}
	}
	if s.RootLengthMM < 0 {
		return ValidationError{Field: "root_length_mm", Reason: "must be non-negative"}
	}
	return nil
}

// identity builds the generation input for the submission at the given count.
func (s Submission) identity(count int) domain.SpecimenIdentity {
	return domain.SpecimenIdentity{
		FDICode:       s.FDICode,
		Dentition:     s.Dentition,
		Arch:          s.Arch,
		Side:          s.Side,
		SequenceCount: count,
	}
}
