// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/authapi"
	"github.com/holomush/holoauth/internal/config"
	"github.com/holomush/holoauth/internal/session"
)

// storeOpener opens session stores, retrying the initial backend ping.
type storeOpener struct {
	backoff func() retry.Backoff
}

var defaultStoreOpener = storeOpener{
	backoff: func() retry.Backoff {
		return retry.WithMaxRetries(4, retry.NewExponential(200*time.Millisecond))
	},
}

func noopClose() error { return nil }

func (o storeOpener) open(ctx context.Context, cfg config.StoreConfig) (session.Store, func() error, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), noopClose, nil

	case config.BackendFile:
		store, err := session.NewFileStore(cfg.File.Path, cfg.Key)
		if err != nil {
			return nil, nil, err //nolint:wrapcheck // already coded
		}
		return store, noopClose, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		err := retry.Do(ctx, o.backoff(), func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			_ = client.Close() //nolint:errcheck // connect error takes precedence
			return nil, nil, oops.Code("STORE_CONNECT_FAILED").
				With("backend", cfg.Backend).
				With("addr", cfg.Redis.Addr).
				Wrap(err)
		}
		store, err := session.NewRedisStore(client, cfg.Redis.Prefix, cfg.Key)
		if err != nil {
			_ = client.Close() //nolint:errcheck // constructor error takes precedence
			return nil, nil, err //nolint:wrapcheck // already coded
		}
		return store, client.Close, nil

	case config.BackendPostgres:
		var pool *pgxpool.Pool
		err := retry.Do(ctx, o.backoff(), func(ctx context.Context) error {
			p, err := session.ConnectPostgres(ctx, cfg.Postgres.URL)
			if err != nil {
				return retry.RetryableError(err)
			}
			pool = p
			return nil
		})
		if err != nil {
			return nil, nil, oops.Code("STORE_CONNECT_FAILED").With("backend", cfg.Backend).Wrap(err)
		}
		store, err := session.NewPostgresStore(pool, cfg.Key)
		if err != nil {
			pool.Close()
			return nil, nil, err //nolint:wrapcheck // already coded
		}
		return store, func() error { pool.Close(); return nil }, nil
	}

	return nil, nil, oops.Code("CONFIG_INVALID").With("backend", cfg.Backend).Errorf("unknown store backend")
}

func newAPIClient(cfg config.ServiceConfig, logger *slog.Logger) (auth.API, error) {
	client, err := authapi.NewClient(authapi.ClientConfig{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	return client, nil
}
