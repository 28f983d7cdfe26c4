// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// DefaultKey is the key the token is stored under when none is configured.
const DefaultKey = "token"

// Store persists the session token.
type Store interface {
	// Load returns the stored token. ok is false when no token is stored.
	// err is non-nil only when the backend cannot be read.
	Load(ctx context.Context) (token string, ok bool, err error)

	// Save stores the token, replacing any previous value. The write is
	// durable when Save returns nil.
	Save(ctx context.Context, token string) error

	// Clear removes the token. Clearing an absent token is not an error.
	Clear(ctx context.Context) error
}

// Fingerprint returns a short, non-reversible identifier for a token that is
// safe to log.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}
