package core

import (
	"context"
	"dentalatlas/pkg/domain"
	"fmt"
)

// NewDuplicateIdentifierRule returns the in-transaction rule flagging specimen
// identifier collisions. Collisions are possible because sequencing reads the
// row count without coordination; the rule warns and never blocks, keeping the
// observed submission behavior intact while making collisions visible.
func NewDuplicateIdentifierRule() domain.Rule {
	return duplicateIdentifierRule{}
}

type duplicateIdentifierRule struct{}

func (duplicateIdentifierRule) Name() string { return "duplicate_identifier" }

func (duplicateIdentifierRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityRecord || change.Action != domain.ActionCreate {
			continue
		}
		appended, ok := change.After.(domain.SpecimenRecord)
		if !ok || appended.USID == "" {
			continue
		}
		count := 0
		for _, existing := range view.ListRecords() {
			if existing.USID == appended.USID {
				count++
			}
		}
		if count > 1 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "duplicate_identifier",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("identifier %s already assigned to %d record(s); submissions raced on the row count", appended.USID, count-1),
				Entity:   domain.EntityRecord,
				EntityID: appended.ID,
			})
		}
	}
	return res, nil
}
