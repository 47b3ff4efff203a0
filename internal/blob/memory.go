package blob

import (
	infraMemory "dentalatlas/internal/infra/blob/memory"
)

// NewMemory returns an in-memory blob store for tests and ephemeral runs.
func NewMemory() Store {
	return infraMemory.New()
}
