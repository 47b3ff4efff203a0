// Package memory provides an in-memory implementation of the atlas record
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"dentalatlas/pkg/domain"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.RecordStore = (*Store)(nil)

type (
	// SpecimenRecord aliases domain.SpecimenRecord for in-memory persistence operations.
	SpecimenRecord = domain.SpecimenRecord
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// headerRows is the constant offset added to the record count: the source data
// set carries one header row and identifiers were sequenced against the total
// row count including it. Kept for identifier parity.
const headerRows = 1

type memoryState struct {
	records []SpecimenRecord
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Records []SpecimenRecord `json:"records"`
}

func (s memoryState) clone() memoryState {
	out := make([]SpecimenRecord, len(s.records))
	copy(out, s.records)
	return memoryState{records: out}
}

// Store implements an append-only record table guarded by a mutex. The
// read-count-then-append sequence used by callers is intentionally not atomic
// across submissions; see domain.RecordStore.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]SpecimenRecord, len(s.state.records))
	copy(records, s.state.records)
	return Snapshot{Records: records}
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]SpecimenRecord, len(snapshot.Records))
	copy(records, snapshot.Records)
	s.state = memoryState{records: records}
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc overrides the time provider for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListRecords returns all records within the snapshot in append order.
func (v transactionView) ListRecords() []SpecimenRecord {
	out := make([]SpecimenRecord, len(v.state.records))
	copy(out, v.state.records)
	return out
}

// FindRecord retrieves a record by ID from the snapshot.
func (v transactionView) FindRecord(id string) (SpecimenRecord, bool) {
	for _, r := range v.state.records {
		if r.ID == id {
			return r, true
		}
	}
	return SpecimenRecord{}, false
}

// FindByUSID retrieves the earliest appended record carrying the identifier.
func (v transactionView) FindByUSID(usid string) (SpecimenRecord, bool) {
	for _, r := range v.state.records {
		if r.USID == usid {
			return r, true
		}
	}
	return SpecimenRecord{}, false
}

// RowCount reports the persisted row count including the header row.
func (v transactionView) RowCount() int {
	return len(v.state.records) + headerRows
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// AppendRecord appends an immutable specimen record to the table.
func (tx *transaction) AppendRecord(r SpecimenRecord) (SpecimenRecord, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	for _, existing := range tx.state.records {
		if existing.ID == r.ID {
			return SpecimenRecord{}, fmt.Errorf("record %q already exists", r.ID)
		}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.records = append(tx.state.records, r)
	tx.recordChange(Change{Entity: domain.EntityRecord, Action: domain.ActionCreate, After: r})
	return r, nil
}

// RowCount reports the row count within the transaction, including the header row.
func (tx *transaction) RowCount() int {
	return len(tx.state.records) + headerRows
}

// FindByUSID exposes identifier lookup within the transaction scope.
func (tx *transaction) FindByUSID(usid string) (SpecimenRecord, bool) {
	for _, r := range tx.state.records {
		if r.USID == usid {
			return r, true
		}
	}
	return SpecimenRecord{}, false
}

// RowCount returns the committed row count including the header row.
func (s *Store) RowCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.records) + headerRows
}

// ListRecords returns all committed records in append order.
func (s *Store) ListRecords() []SpecimenRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SpecimenRecord, len(s.state.records))
	copy(out, s.state.records)
	return out
}

// GetRecord retrieves a committed record by ID.
func (s *Store) GetRecord(id string) (SpecimenRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.state.records {
		if r.ID == id {
			return r, true
		}
	}
	return SpecimenRecord{}, false
}

// FindByUSID retrieves the earliest committed record carrying the identifier.
func (s *Store) FindByUSID(usid string) (SpecimenRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.state.records {
		if r.USID == usid {
			return r, true
		}
	}
	return SpecimenRecord{}, false
}
