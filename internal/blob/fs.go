package blob

import (
	infraFS "dentalatlas/internal/infra/blob/fs"
)

// NewFilesystem returns a filesystem blob store rooted at path, creating it if needed.
func NewFilesystem(root string) (Store, error) {
	return infraFS.New(root)
}
