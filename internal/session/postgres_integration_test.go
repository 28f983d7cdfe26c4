// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package session_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/holoauth/internal/session"
)

// setupPostgresContainer starts PostgreSQL, applies the schema and returns a pool.
func setupPostgresContainer() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("holoauth_test"),
		postgres.WithUsername("holoauth"),
		postgres.WithPassword("holoauth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	migrator, err := session.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	_ = migrator.Close()

	pool, err := session.ConnectPostgres(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup, nil
}

var _ = Describe("PostgresStore", func() {
	var (
		pool    *pgxpool.Pool
		cleanup func()
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		pool, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	It("reports an absent token on an empty table", func() {
		store, err := session.NewPostgresStore(pool, "")
		Expect(err).NotTo(HaveOccurred())

		_, ok, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("round-trips and overwrites the token", func() {
		store, err := session.NewPostgresStore(pool, "")
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Save(ctx, "first")).To(Succeed())
		Expect(store.Save(ctx, "abc123")).To(Succeed())

		token, ok, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(token).To(Equal("abc123"))
	})

	It("clears idempotently", func() {
		store, err := session.NewPostgresStore(pool, "")
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Save(ctx, "abc123")).To(Succeed())
		Expect(store.Clear(ctx)).To(Succeed())
		Expect(store.Clear(ctx)).To(Succeed())

		_, ok, err := store.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("keeps keys independent", func() {
		a, err := session.NewPostgresStore(pool, "alice")
		Expect(err).NotTo(HaveOccurred())
		b, err := session.NewPostgresStore(pool, "bob")
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Save(ctx, "token-a")).To(Succeed())
		Expect(b.Clear(ctx)).To(Succeed())

		token, ok, err := a.Load(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(token).To(Equal("token-a"))
	})
})
