package domain

import "testing"

func TestResultMergeAndBlocking(t *testing.T) {
	var combined Result
	combined.Merge(Result{})
	if len(combined.Violations) != 0 {
		t.Fatalf("merge of empty result added violations")
	}
	combined.Merge(Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}})
	if combined.HasBlocking() {
		t.Fatalf("warn-only result reported blocking")
	}
	combined.Merge(Result{Violations: []Violation{{Rule: "b", Severity: SeverityBlock}}})
	if !combined.HasBlocking() {
		t.Fatalf("blocking violation not reported")
	}
	if warnings := combined.Warnings(); len(warnings) != 1 || warnings[0].Rule != "a" {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
}

func TestMediaSentinels(t *testing.T) {
	if ref := NoImage(); ref.Kind != MediaSentinel || ref.Link != SentinelNoImage {
		t.Fatalf("unexpected NoImage sentinel: %+v", ref)
	}
	if ref := NoFile(); ref.Link != SentinelNoFile {
		t.Fatalf("unexpected NoFile sentinel: %+v", ref)
	}
	if ref := UploadFailed(); ref.Link != SentinelUploadFailed {
		t.Fatalf("unexpected UploadFailed sentinel: %+v", ref)
	}
}

func TestRecordIdentity(t *testing.T) {
	rec := SpecimenRecord{
		FDICode:   "36",
		Dentition: DentitionPermanent,
		Arch:      ArchMandibular,
		Side:      SideLeft,
	}
	id := rec.Identity(7)
	if id.SequenceCount != 7 {
		t.Fatalf("sequence count = %d, want 7", id.SequenceCount)
	}
	if got := id.USID(); got != "36-P-Md-L-007" {
		t.Fatalf("usid = %q, want 36-P-Md-L-007", got)
	}
}
