package sqlite

import (
	"context"
	"dentalatlas/pkg/domain"
	"path/filepath"
	"testing"
)

func testRecord(usid string) domain.SpecimenRecord {
	return domain.SpecimenRecord{
		USID:      usid,
		Collector: "Dr. Fawzy",
		Source:    "Private Clinic",
		Dentition: domain.DentitionDeciduous,
		Arch:      domain.ArchMaxillary,
		Side:      domain.SideRight,
		FDICode:   "51",
		Image:     domain.NoImage(),
		CBCT:      domain.NoFile(),
	}
}

func TestStore_PersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas", "test.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.AppendRecord(testRecord("51-D-Mx-R-001"))
		return err
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if store.Path() != path {
		t.Fatalf("path = %q", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer func() { _ = reloaded.Close() }()
	if reloaded.RowCount() != 2 {
		t.Fatalf("reloaded count = %d, want 2", reloaded.RowCount())
	}
	if _, ok := reloaded.FindByUSID("51-D-Mx-R-001"); !ok {
		t.Fatalf("reloaded store missing record")
	}
}

func TestStore_FreshDatabase(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "atlas.db"), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.DB() == nil {
		t.Fatalf("expected live db handle")
	}
	if store.RowCount() != 1 {
		t.Fatalf("fresh store count = %d, want 1", store.RowCount())
	}
}

func TestStore_FailedTransactionNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	rec := testRecord("51-D-Mx-R-001")
	rec.ID = "dup"
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.AppendRecord(rec)
		return err
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.AppendRecord(rec)
		return err
	}); err == nil {
		t.Fatalf("expected duplicate id rejection")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	reloaded, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	defer func() { _ = reloaded.Close() }()
	if got := len(reloaded.ListRecords()); got != 1 {
		t.Fatalf("persisted records = %d, want 1", got)
	}
}
