package core

import (
	"dentalatlas/internal/infra/persistence/memory"
	"dentalatlas/internal/infra/persistence/postgres"
	"dentalatlas/internal/infra/persistence/sqlite"
	"dentalatlas/pkg/domain"
	"fmt"
	"os"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenRecordStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	DENTALATLAS_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	DENTALATLAS_SQLITE_PATH: path to sqlite file (default ./dentalatlas.db)
//	DENTALATLAS_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenRecordStore(engine *RulesEngine) (RecordStore, error) {
	driver := os.Getenv("DENTALATLAS_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		path := os.Getenv("DENTALATLAS_SQLITE_PATH")
		return sqlite.NewStore(path, engine)
	case StoragePostgres:
		dsn := os.Getenv("DENTALATLAS_POSTGRES_DSN")
		return postgres.NewStore(dsn, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

// NewMemoryStore constructs an in-memory record store, mostly for tests.
func NewMemoryStore(engine *RulesEngine) *memory.Store {
	return memory.NewStore(engine)
}

// DefaultRulesEngine returns an engine loaded with the atlas's built-in rules.
func DefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewDuplicateIdentifierRule())
	engine.Register(NewMeasurementBoundsRule())
	return engine
}
