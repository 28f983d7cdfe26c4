// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/internal/session"
	"github.com/holomush/holoauth/pkg/errutil"
)

func newFileStore(t *testing.T) (*session.FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "session.json")
	store, err := session.NewFileStore(path, "")
	require.NoError(t, err)
	return store, path
}

func TestNewFileStore_RequiresPath(t *testing.T) {
	store, err := session.NewFileStore("", "token")
	assert.Nil(t, store)
	errutil.AssertErrorCode(t, err, "SESSION_STORE_INVALID")
}

func TestFileStore_LoadMissingFileIsAbsent(t *testing.T) {
	store, _ := newFileStore(t)

	token, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestFileStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	store, path := newFileStore(t)

	require.NoError(t, store.Save(ctx, "abc123"))

	token, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]string
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]string{"token": "abc123"}, doc)
}

func TestFileStore_SaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	store, path := newFileStore(t)

	require.NoError(t, store.Save(ctx, "first"))
	require.NoError(t, store.Save(ctx, "second"))

	token, _, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.json", entries[0].Name())
}

func TestFileStore_CustomKey(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	store, err := session.NewFileStore(path, "access_token")
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "abc123"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"abc123"}`, string(data))

	// A document written under another key reads as absent.
	other, err := session.NewFileStore(path, "token")
	require.NoError(t, err)
	_, ok, err := other.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, path := newFileStore(t)

	require.NoError(t, store.Clear(ctx), "clearing a missing file must succeed")

	require.NoError(t, store.Save(ctx, "abc123"))
	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_CorruptDocument(t *testing.T) {
	store, path := newFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, ok, err := store.Load(context.Background())
	assert.False(t, ok)
	errutil.AssertErrorCode(t, err, "SESSION_STORE_CORRUPT")
}

func TestFileStore_SaveFailsWhenDirectoryIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store, err := session.NewFileStore(filepath.Join(blocker, "session.json"), "")
	require.NoError(t, err)

	err = store.Save(context.Background(), "abc123")
	errutil.AssertErrorCode(t, err, "SESSION_STORE_SAVE_FAILED")
}
