// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/holoauth/internal/credsvc"
	"github.com/holomush/holoauth/internal/observability"
)

type devServerFlags struct {
	listen     string
	tokenTTL   time.Duration
	secret     string
	bcryptCost int
	users      []string
	roles      map[string]string
}

func newDevServerCmd(env *cliEnv) *cobra.Command {
	flags := &devServerFlags{}
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory credential service for local development",
		Long: `Run an in-memory credential service speaking the register/login/me
protocol plus the work log resource. Accounts live only as long as the
process. --role attaches a role claim (intern, supervisor, ...) to the
tokens issued to a seeded account. Point the client at it
with --base-url http://<listen>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runDevServer(ctx, cmd, env, flags)
		},
	}
	cmd.Flags().StringVar(&flags.listen, "listen", "127.0.0.1:8000", "listen address")
	cmd.Flags().DurationVar(&flags.tokenTTL, "token-ttl", credsvc.DefaultTokenTTL, "lifetime of issued tokens")
	cmd.Flags().StringVar(&flags.secret, "secret", os.Getenv("HOLOAUTH_DEVSERVER_SECRET"),
		"token signing secret (default random; $HOLOAUTH_DEVSERVER_SECRET)")
	cmd.Flags().IntVar(&flags.bcryptCost, "bcrypt-cost", bcrypt.DefaultCost, "bcrypt cost for stored passwords")
	cmd.Flags().StringSliceVar(&flags.users, "user", nil, "seed an account as email:password (repeatable)")
	cmd.Flags().StringToStringVar(&flags.roles, "role", nil, "set the role of a seeded account as email=role (repeatable)")
	return cmd
}

func runDevServer(ctx context.Context, cmd *cobra.Command, env *cliEnv, flags *devServerFlags) error {
	_, logger, err := env.loadConfig(cmd)
	if err != nil {
		return err
	}

	svc, err := credsvc.New(credsvc.Config{
		Secret:     []byte(flags.secret),
		TokenTTL:   flags.tokenTTL,
		BcryptCost: flags.bcryptCost,
		Logger:     logger,
	})
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	for _, spec := range flags.users {
		email, password, err := splitUser(spec)
		if err != nil {
			return err
		}
		if _, err := svc.AddUser(email, password); err != nil {
			return err //nolint:wrapcheck // already coded
		}
	}
	for email, role := range flags.roles {
		if err := svc.SetRole(email, role); err != nil {
			return err //nolint:wrapcheck // already coded
		}
	}
	logger.InfoContext(ctx, "credential service seeded", "users", svc.Users(), "roles", len(flags.roles))

	server := env.deps.ServerFactory(flags.listen, nil,
		observability.WithLogger(logger),
		observability.WithHandler("/", svc.Handler()),
	)
	errCh, err := server.Start()
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	_, _ = cmd.OutOrStdout().Write([]byte("credential service listening on http://" + server.Addr() + "\n"))

	return waitAndStop(ctx, server, errCh)
}
