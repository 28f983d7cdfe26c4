// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package session owns the durable bearer token.
//
// A Store is a dumb durable cell holding a single token under a single key.
// Reading a missing key is not an error; Save is durable before it returns;
// Clear is idempotent. Stores never retry and never expire tokens.
//
// Backends:
//   - MemoryStore - in-process, used by tests and the "memory" backend
//   - FileStore - JSON document under the XDG state directory (default)
//   - RedisStore - one Redis key, no TTL
//   - PostgresStore - one row in session_tokens, schema managed by Migrator
package session
