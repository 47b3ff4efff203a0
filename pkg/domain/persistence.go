package domain

import "context"

// Transaction exposes the domain operations a persistence implementation must
// support within an atomic scope. The atlas table is append-only: created
// records are immutable and there is no update or delete operation.
type Transaction interface {
	Snapshot() TransactionView
	AppendRecord(SpecimenRecord) (SpecimenRecord, error)
	RowCount() int
	FindByUSID(usid string) (SpecimenRecord, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListRecords() []SpecimenRecord
	FindRecord(id string) (SpecimenRecord, bool)
	FindByUSID(usid string) (SpecimenRecord, bool)
	RowCount() int
}

// RecordStore is a minimal abstraction over durable backends. It mirrors the
// subset of store capabilities used directly by higher layers.
//
// RowCount returns the current persisted row count including one header row,
// preserving the sequencing semantics of the source data set: the first
// appended record observes a count of 1. The count is advisory only. The
// read-count-then-append pair is deliberately not atomic across callers, so
// two submissions reading the same count generate the same identifier; the
// collision is surfaced by rule warnings rather than prevented.
type RecordStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	RowCount() int
	ListRecords() []SpecimenRecord
	GetRecord(id string) (SpecimenRecord, bool)
	FindByUSID(usid string) (SpecimenRecord, bool)
}
