// Package memory keeps specimen media in process memory. It backs tests and
// throwaway runs where nothing should touch the filesystem.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"dentalatlas/internal/blob/core"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

type storedObject struct {
	desc core.Object
	data []byte
}

// Store holds objects in a map guarded by a mutex. Writes are create-only
// like every media backend.
type Store struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

// New returns an empty in-memory media store.
func New() *Store { return &Store{objects: make(map[string]storedObject)} }

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Object{}, err
	}
	digest := sha256.Sum256(data)
	desc := core.Object{
		Key:         key,
		USID:        opts.USID,
		Size:        int64(len(data)),
		ContentType: opts.ContentType,
		Checksum:    hex.EncodeToString(digest[:]),
		StoredAt:    time.Now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.objects[key]; taken {
		return core.Object{}, fmt.Errorf("media %s already stored", key)
	}
	s.objects[key] = storedObject{desc: desc, data: data}
	return desc, nil
}

func (s *Store) Open(_ context.Context, key string) (core.Object, io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return core.Object{}, nil, fmt.Errorf("media %s not found", key)
	}
	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return obj.desc, io.NopCloser(bytes.NewReader(data)), nil
}

func (s *Store) Stat(_ context.Context, key string) (core.Object, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return core.Object{}, fmt.Errorf("media %s not found", key)
	}
	return obj.desc, nil
}

func (s *Store) ForRecord(_ context.Context, usid string) ([]core.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var objects []core.Object
	for key, obj := range s.objects {
		if core.BelongsTo(key, usid) {
			objects = append(objects, obj.desc)
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// ResolveURL always fails: process memory has no address the outside world
// can download from.
func (s *Store) ResolveURL(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", core.ErrNoURL
}
