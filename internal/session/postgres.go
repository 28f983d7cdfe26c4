// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
)

// poolIface is the subset of pgxpool.Pool used by PostgresStore.
// pgxmock.PgxPoolIface satisfies it in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps the token in the session_tokens table, one row per key.
type PostgresStore struct {
	pool poolIface
	key  string
}

// NewPostgresStore creates a PostgresStore using key as the row key.
// An empty key means DefaultKey.
func NewPostgresStore(pool poolIface, key string) (*PostgresStore, error) {
	if pool == nil {
		return nil, oops.Code("SESSION_STORE_INVALID").Errorf("postgres pool is required")
	}
	if key == "" {
		key = DefaultKey
	}
	return &PostgresStore{pool: pool, key: key}, nil
}

// ConnectPostgres opens a connection pool and verifies it with a ping.
// Errors are returned uncoded so the caller's code is the one reported.
func ConnectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, oops.With("operation", "create pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.With("operation", "ping").Wrap(err)
	}
	return pool, nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context) (string, bool, error) {
	var token string
	err := s.pool.QueryRow(ctx,
		`SELECT token FROM session_tokens WHERE key = $1`, s.key).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.wrap("SESSION_STORE_LOAD_FAILED", err)
	}
	return token, true, nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO session_tokens (key, token, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET token = EXCLUDED.token, updated_at = now()`,
		s.key, token)
	if err != nil {
		return s.wrap("SESSION_STORE_SAVE_FAILED", err)
	}
	return nil
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM session_tokens WHERE key = $1`, s.key); err != nil {
		return s.wrap("SESSION_STORE_CLEAR_FAILED", err)
	}
	return nil
}

// wrap tags err with code, or with SESSION_STORE_SCHEMA_MISSING when the
// table has not been created yet.
func (s *PostgresStore) wrap(code string, err error) error {
	builder := oops.Code(code).With("backend", "postgres").With("key", s.key)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		builder = builder.With("sqlstate", pgErr.Code)
		if pgErr.Code == pgerrcode.UndefinedTable {
			builder = oops.Code("SESSION_STORE_SCHEMA_MISSING").
				With("backend", "postgres").
				With("key", s.key).
				Hint("run `holoauth migrate up` to create the session_tokens table")
		}
	}
	return builder.Wrap(err)
}
