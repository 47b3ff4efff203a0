package core

import (
	"context"
	"dentalatlas/pkg/domain"
	"fmt"
)

// NewMeasurementBoundsRule returns the in-transaction rule enforcing
// non-negative measurements, a store-level backstop behind the submission
// boundary validation.
func NewMeasurementBoundsRule() domain.Rule {
	return measurementBoundsRule{}
}

type measurementBoundsRule struct{}

func (measurementBoundsRule) Name() string { return "measurement_bounds" }

func (measurementBoundsRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityRecord || change.Action != domain.ActionCreate {
			continue
		}
		appended, ok := change.After.(domain.SpecimenRecord)
		if !ok {
			continue
		}
		if appended.CrownHeightMM < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "measurement_bounds",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("crown height %.1fmm is negative", appended.CrownHeightMM),
				Entity:   domain.EntityRecord,
				EntityID: appended.ID,
			})
		}
		if appended.RootLengthMM < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "measurement_bounds",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("root length %.1fmm is negative", appended.RootLengthMM),
				Entity:   domain.EntityRecord,
				EntityID: appended.ID,
			})
		}
	}
	return res, nil
}
