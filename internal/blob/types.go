// Package blob re-exports the media storage contract for stable internal
// imports and selects the backend driver from the environment.
package blob

import (
	"dentalatlas/internal/blob/core"
)

type (
	// Driver names a media backend driver.
	Driver = core.Driver
	// PutOptions carries the submission context for a media upload.
	PutOptions = core.PutOptions
	// Object describes one stored media file.
	Object = core.Object
	// Store is the media backend contract.
	Store = core.Store
)

const (
	// DriverFilesystem is the local directory driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3 or MinIO driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrNoURL reports that a backend cannot mint download URLs.
var ErrNoURL = core.ErrNoURL

// BelongsTo reports whether a media key derives from the given identifier.
func BelongsTo(key, usid string) bool { return core.BelongsTo(key, usid) }
