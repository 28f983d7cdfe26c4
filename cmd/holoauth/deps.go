// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/config"
	"github.com/holomush/holoauth/internal/observability"
	"github.com/holomush/holoauth/internal/session"
)

// Deps contains injectable dependencies for the CLI.
// All fields with nil values will use their default implementations.
type Deps struct {
	// StoreOpener opens the configured session store. The returned func
	// releases it.
	// Default: defaultStoreOpener.open
	StoreOpener func(ctx context.Context, cfg config.StoreConfig) (session.Store, func() error, error)

	// APIFactory creates the credential service client.
	// Default: newAPIClient
	APIFactory func(cfg config.ServiceConfig, logger *slog.Logger) (auth.API, error)

	// MigratorFactory creates a schema migrator for a Postgres URL.
	// Default: session.NewMigrator
	MigratorFactory func(url string) (Migrator, error)

	// ServerFactory creates the HTTP server used by serve and devserver.
	// Default: observability.NewServer
	ServerFactory func(addr string, ready observability.ReadinessChecker, opts ...observability.Option) Server
}

// Migrator wraps the methods used from session.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Force(version int) error
	Version() (version uint, dirty bool, err error)
	Close() error
}

// Server wraps the methods used from observability.Server.
type Server interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.StoreOpener == nil {
		out.StoreOpener = defaultStoreOpener.open
	}
	if out.APIFactory == nil {
		out.APIFactory = newAPIClient
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			return session.NewMigrator(url)
		}
	}
	if out.ServerFactory == nil {
		out.ServerFactory = func(addr string, ready observability.ReadinessChecker, opts ...observability.Option) Server {
			return observability.NewServer(addr, ready, opts...)
		}
	}
	return &out
}
