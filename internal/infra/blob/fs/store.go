// Package fs stores specimen media as plain files under a local directory.
// It is the default backend for single-machine atlas deployments: the
// directory can be inspected, backed up, or rsynced without tooling.
package fs

import (
	"context"
	"crypto/sha256"
	"dentalatlas/internal/blob/core"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ServePrefix is the URL path under which the intake server exposes stored
// media. URLs minted by this driver are relative to the serving host so the
// persisted links stay valid wherever the atlas is reachable.
const ServePrefix = "/media/"

// sidecarSuffix marks the per-object description file written next to the
// content file.
const sidecarSuffix = ".atlas.json"

// Store keeps every object as a file directly under root, with a sidecar
// describing it. Keys form a flat namespace; path separators are rejected.
type Store struct {
	root string
}

// New opens a store rooted at dir, creating the directory if needed. An
// empty dir selects ./mediadata.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "./mediadata"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: dir}, nil
}

// Root returns the directory the store writes under.
func (s *Store) Root() string { return s.root }

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// checkKey rejects anything that could address outside the flat namespace.
// Media keys are identifier-derived and never contain separators.
func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty media key")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("media key %q must be a bare file name", key)
	}
	return nil
}

// sidecar is the on-disk object description.
type sidecar struct {
	USID        string    `json:"usid,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Checksum    string    `json:"checksum"`
	Size        int64     `json:"size"`
	StoredAt    time.Time `json:"stored_at"`
}

func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	if err := checkKey(key); err != nil {
		return core.Object{}, err
	}
	// O_EXCL makes the create-only guarantee: a taken key fails here.
	f, err := os.OpenFile(filepath.Join(s.root, key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return core.Object{}, fmt.Errorf("media %s already stored", key)
		}
		return core.Object{}, err
	}
	digest := sha256.New()
	size, err := io.Copy(io.MultiWriter(f, digest), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.root, key))
		return core.Object{}, err
	}
	sc := sidecar{
		USID:        opts.USID,
		ContentType: opts.ContentType,
		Checksum:    hex.EncodeToString(digest.Sum(nil)),
		Size:        size,
		StoredAt:    time.Now().UTC(),
	}
	raw, err := json.Marshal(sc)
	if err == nil {
		err = os.WriteFile(filepath.Join(s.root, key+sidecarSuffix), raw, 0o644)
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.root, key))
		return core.Object{}, err
	}
	return s.object(key, sc), nil
}

func (s *Store) Open(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	if err := checkKey(key); err != nil {
		return core.Object{}, nil, err
	}
	sc, err := s.readSidecar(key)
	if err != nil {
		return core.Object{}, nil, err
	}
	f, err := os.Open(filepath.Join(s.root, key))
	if err != nil {
		return core.Object{}, nil, err
	}
	return s.object(key, sc), f, nil
}

func (s *Store) Stat(_ context.Context, key string) (core.Object, error) {
	if err := checkKey(key); err != nil {
		return core.Object{}, err
	}
	sc, err := s.readSidecar(key)
	if err != nil {
		return core.Object{}, err
	}
	return s.object(key, sc), nil
}

func (s *Store) ForRecord(_ context.Context, usid string) ([]core.Object, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var objects []core.Object
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, sidecarSuffix) {
			continue
		}
		if !core.BelongsTo(name, usid) {
			continue
		}
		sc, err := s.readSidecar(name)
		if err != nil {
			return nil, err
		}
		objects = append(objects, s.object(name, sc))
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// ResolveURL returns the path the intake server exposes the object under.
// Local files do not expire, so ttl is ignored.
func (s *Store) ResolveURL(_ context.Context, key string, _ time.Duration) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	return s.servedURL(key), nil
}

func (s *Store) object(key string, sc sidecar) core.Object {
	return core.Object{
		Key:         key,
		USID:        sc.USID,
		Size:        sc.Size,
		ContentType: sc.ContentType,
		Checksum:    sc.Checksum,
		StoredAt:    sc.StoredAt,
		URL:         s.servedURL(key),
	}
}

func (s *Store) servedURL(key string) string {
	return ServePrefix + url.PathEscape(key)
}

func (s *Store) readSidecar(key string) (sidecar, error) {
	raw, err := os.ReadFile(filepath.Join(s.root, key+sidecarSuffix))
	if err != nil {
		return sidecar{}, err
	}
	var sc sidecar
	if err := json.Unmarshal(raw, &sc); err != nil {
		return sidecar{}, fmt.Errorf("media %s description corrupt: %w", key, err)
	}
	return sc, nil
}
