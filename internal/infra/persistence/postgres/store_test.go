package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
)

func TestNewStore_OpenError(t *testing.T) {
	restore := OverrideSQLOpen(func(driverName, dsn string) (*sql.DB, error) {
		if driverName != defaultDriver {
			t.Fatalf("driver = %q, want %q", driverName, defaultDriver)
		}
		return nil, errors.New("refused")
	})
	defer restore()

	if _, err := NewStore("", nil); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestNewStore_DefaultDSN(t *testing.T) {
	var seenDSN string
	restore := OverrideSQLOpen(func(_, dsn string) (*sql.DB, error) {
		seenDSN = dsn
		return nil, errors.New("refused")
	})
	defer restore()

	_, _ = NewStore("", nil)
	if seenDSN != defaultDSN {
		t.Fatalf("dsn = %q, want default", seenDSN)
	}

	_, _ = NewStore("postgres://db.example/atlas", nil)
	if seenDSN != "postgres://db.example/atlas" {
		t.Fatalf("dsn = %q, want explicit", seenDSN)
	}
}

func TestOverrideSQLOpen_Restores(t *testing.T) {
	called := false
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		called = true
		return nil, errors.New("refused")
	})
	_, _ = NewStore("", nil)
	restore()
	if !called {
		t.Fatalf("override not used")
	}
	openMu.Lock()
	same := sqlOpen != nil
	openMu.Unlock()
	if !same {
		t.Fatalf("sqlOpen not restored")
	}
}

// refusingConnector fails every connection attempt, so NewStore fails at the
// ping stage while holding a live *sql.DB.
type refusingConnector struct{}

func (refusingConnector) Connect(context.Context) (driver.Conn, error) {
	return nil, errors.New("connection refused")
}

func (refusingConnector) Driver() driver.Driver { return nil }

func TestNewStore_ClosesHandleOnPingFailure(t *testing.T) {
	var opened *sql.DB
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		opened = sql.OpenDB(refusingConnector{})
		return opened, nil
	})
	defer restore()

	if _, err := NewStore("", nil); err == nil {
		t.Fatalf("expected ping failure")
	}
	if opened == nil {
		t.Fatalf("override not used")
	}
	if err := opened.Ping(); err == nil || err.Error() != "sql: database is closed" {
		t.Fatalf("handle not closed after failed init: %v", err)
	}
}
