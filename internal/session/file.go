// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/xdg"
)

// FileStore persists the token in a small JSON document, e.g.
//
//	{"token": "eyJhbGciOi..."}
//
// Writes go to a temporary file in the same directory which is synced and
// renamed over the target, so readers never observe a partial document.
type FileStore struct {
	path string
	key  string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore writing to path under key.
// An empty key means DefaultKey.
func NewFileStore(path, key string) (*FileStore, error) {
	if path == "" {
		return nil, oops.Code("SESSION_STORE_INVALID").Errorf("file store path is required")
	}
	if key == "" {
		key = DefaultKey
	}
	return &FileStore{path: path, key: key}, nil
}

// Path returns the file the token is written to.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.Code("SESSION_STORE_LOAD_FAILED").
			With("backend", "file").
			With("path", s.path).
			Wrap(err)
	}

	var doc map[string]string
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", false, oops.Code("SESSION_STORE_CORRUPT").
			With("backend", "file").
			With("path", s.path).
			Wrap(err)
	}

	token, ok := doc[s.key]
	if !ok || token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(map[string]string{s.key: token})
	if err != nil {
		return oops.Code("SESSION_STORE_SAVE_FAILED").With("backend", "file").Wrap(err)
	}

	dir := filepath.Dir(s.path)
	if err := xdg.EnsureDir(dir); err != nil {
		return oops.Code("SESSION_STORE_SAVE_FAILED").With("backend", "file").Wrap(err)
	}

	if err := writeFileAtomic(dir, s.path, data); err != nil {
		return oops.Code("SESSION_STORE_SAVE_FAILED").
			With("backend", "file").
			With("path", s.path).
			Wrap(err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return oops.Code("SESSION_STORE_CLEAR_FAILED").
			With("backend", "file").
			With("path", s.path).
			Wrap(err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in dir (mode 0600), syncs it and
// renames it over path.
func writeFileAtomic(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup; original error wins
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error takes precedence
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
