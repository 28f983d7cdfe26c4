// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package session

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

// DefaultRedisPrefix namespaces the token key inside a shared Redis.
const DefaultRedisPrefix = "holoauth:"

// RedisStore keeps the token in a single Redis string key without expiry.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore creates a RedisStore storing the token at prefix+key.
// An empty key means DefaultKey.
func NewRedisStore(client redis.Cmdable, prefix, key string) (*RedisStore, error) {
	if client == nil {
		return nil, oops.Code("SESSION_STORE_INVALID").Errorf("redis client is required")
	}
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: prefix + key}, nil
}

// Key returns the fully-qualified Redis key.
func (s *RedisStore) Key() string {
	return s.key
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.Code("SESSION_STORE_LOAD_FAILED").
			With("backend", "redis").
			With("key", s.key).
			Wrap(err)
	}
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return oops.Code("SESSION_STORE_SAVE_FAILED").
			With("backend", "redis").
			With("key", s.key).
			Wrap(err)
	}
	return nil
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return oops.Code("SESSION_STORE_CLEAR_FAILED").
			With("backend", "redis").
			With("key", s.key).
			Wrap(err)
	}
	return nil
}
