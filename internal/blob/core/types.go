// Package core defines the storage contract for specimen media: the tooth
// photographs and CBCT volumes attached to atlas records. Objects are keyed
// by the record identifier plus a slot suffix, so a backend never needs more
// addressing structure than a flat namespace.
package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Driver names a media storage backend.
type Driver string

const (
	// DriverFilesystem stores media under a local directory. Default for
	// single-machine deployments.
	DriverFilesystem Driver = "fs"
	// DriverS3 stores media in an S3 or MinIO bucket for shared deployments.
	DriverS3 Driver = "s3"
	// DriverMemory keeps media in process memory. Tests only.
	DriverMemory Driver = "memory"
)

// PutOptions carries the submission context recorded alongside an upload.
type PutOptions struct {
	ContentType string // from the multipart part header, may be empty
	USID        string // owning record identifier
}

// Object describes one stored media file.
type Object struct {
	Key         string    `json:"key"`
	USID        string    `json:"usid,omitempty"`
	Size        int64     `json:"size_bytes"`
	ContentType string    `json:"content_type,omitempty"`
	Checksum    string    `json:"checksum,omitempty"`
	StoredAt    time.Time `json:"stored_at"`
	URL         string    `json:"url,omitempty"`
}

// Store is the contract every media backend implements. Writes are
// create-only: once a key holds an object it is never replaced, matching the
// append-only record table the keys are derived from.
type Store interface {
	// Put stores a new object under key. It fails when the key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Object, error)
	// Open returns the object description and a reader over its content.
	Open(ctx context.Context, key string) (Object, io.ReadCloser, error)
	// Stat returns the object description without opening the content.
	Stat(ctx context.Context, key string) (Object, error)
	// ForRecord lists the objects stored for one record identifier.
	ForRecord(ctx context.Context, usid string) ([]Object, error)
	// ResolveURL mints a download URL for the object, valid for at least
	// ttl (a non-positive ttl selects the backend default). Backends that
	// cannot mint URLs return ErrNoURL.
	ResolveURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Driver reports which backend this store is.
	Driver() Driver
}

// ErrNoURL is returned by ResolveURL when the backend has no way to mint a
// download URL for its objects.
var ErrNoURL = errors.New("media store: no resolvable url")

// BelongsTo reports whether key is one of the media keys derived from usid:
// the identifier followed by an extension dot or a slot suffix underscore.
func BelongsTo(key, usid string) bool {
	if usid == "" || !strings.HasPrefix(key, usid) {
		return false
	}
	rest := key[len(usid):]
	return strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, "_")
}
