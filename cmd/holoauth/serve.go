// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/config"
	"github.com/holomush/holoauth/internal/observability"
	"github.com/holomush/holoauth/internal/surface"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session over a loopback HTTP API",
		Long: `Serve the session actions and observables over HTTP on a loopback
address, together with /metrics and health probes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, env)
		},
	}
	cmd.Flags().String("addr", config.DefaultServeAddr, "listen address (loopback only)")
	return cmd
}

// runServe serves until ctx is done or the server fails.
func runServe(ctx context.Context, cmd *cobra.Command, env *cliEnv) error {
	cfg, logger, err := env.loadConfig(cmd)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	s, err := env.newSession(ctx, cfg, logger, auth.WithMetrics(auth.NewMetrics(reg)))
	if err != nil {
		return err
	}
	defer s.Close()

	opts := []observability.Option{
		observability.WithRegistry(reg),
		observability.WithLogger(logger),
	}
	for _, rt := range surface.New(s.ctrl, logger).Routes() {
		opts = append(opts, observability.WithHandler(rt.Pattern, rt.Handler))
	}
	server := env.deps.ServerFactory(cfg.Serve.Addr, nil, opts...)

	errCh, err := server.Start()
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	_, _ = cmd.OutOrStdout().Write([]byte("serving session API on http://" + server.Addr() + "\n"))

	return waitAndStop(ctx, server, errCh)
}

// waitAndStop blocks until ctx is done or errCh reports, then stops server.
func waitAndStop(ctx context.Context, server Server, errCh <-chan error) error {
	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok && err != nil {
			serveErr = oops.Code("SERVER_FAILED").Wrap(err)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Stop(stopCtx); err != nil && serveErr == nil {
		return err //nolint:wrapcheck // already coded
	}
	return serveErr
}
