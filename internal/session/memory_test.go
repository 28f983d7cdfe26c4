// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/internal/session"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	token, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)

	require.NoError(t, store.Save(ctx, "abc123"))
	token, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx), "clear must be idempotent")
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewMemoryStoreWithToken(t *testing.T) {
	store := session.NewMemoryStoreWithToken("seeded")

	token, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "seeded", token)
}

func TestFingerprint(t *testing.T) {
	assert.Empty(t, session.Fingerprint(""))
	fp := session.Fingerprint("abc123")
	assert.Len(t, fp, 8)
	assert.Equal(t, fp, session.Fingerprint("abc123"))
	assert.NotEqual(t, fp, session.Fingerprint("abc124"))
}
