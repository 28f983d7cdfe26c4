// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/config"
	"github.com/holomush/holoauth/internal/logging"
	"github.com/holomush/holoauth/pkg/errutil"
)

// cliEnv is shared by every subcommand.
type cliEnv struct {
	deps       *Deps
	configFile *string
}

// loadConfig reads configuration and installs the logger.
func (e *cliEnv) loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.Flags(), *e.configFile)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // already coded
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // already coded
	}
	logger := logging.Setup("holoauth", version, cfg.Log.Format, level, cmd.ErrOrStderr())
	return cfg, logger, nil
}

// sessionEnv is a restored controller plus the resources behind it.
type sessionEnv struct {
	cfg    *config.Config
	logger *slog.Logger
	ctrl   *auth.Controller
	close  func() error
}

// openSession builds a controller over the configured store and service and
// restores the persisted token. An unreadable store is logged and the
// session starts logged out.
func (e *cliEnv) openSession(ctx context.Context, cmd *cobra.Command) (*sessionEnv, error) {
	cfg, logger, err := e.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return e.newSession(ctx, cfg, logger)
}

func (e *cliEnv) newSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...auth.Option) (*sessionEnv, error) {
	store, closeStore, err := e.deps.StoreOpener(ctx, cfg.Store)
	if err != nil {
		return nil, err //nolint:wrapcheck // already coded
	}
	api, err := e.deps.APIFactory(cfg.Service, logger)
	if err != nil {
		_ = closeStore() //nolint:errcheck // construction error takes precedence
		return nil, err //nolint:wrapcheck // already coded
	}

	opts = append([]auth.Option{auth.WithLogger(logger)}, opts...)
	ctrl, err := auth.NewController(api, store, opts...)
	if err != nil {
		_ = closeStore() //nolint:errcheck // construction error takes precedence
		return nil, err //nolint:wrapcheck // already coded
	}
	if err := ctrl.Restore(ctx); err != nil {
		errutil.LogError(logger, "session store unreadable, starting logged out", err)
	}

	return &sessionEnv{cfg: cfg, logger: logger, ctrl: ctrl, close: closeStore}, nil
}

func (s *sessionEnv) Close() {
	if err := s.close(); err != nil {
		errutil.LogError(s.logger, "closing session store", err)
	}
}

// outcomeError marks a command whose operation completed with a failure
// outcome. The message has already been printed.
type outcomeError struct {
	out auth.Outcome
}

func (e *outcomeError) Error() string {
	return fmt.Sprintf("%s: %s", e.out.String(), e.out.Message())
}

// report prints the outcome message and converts failures into an error so
// the process exits non-zero.
func report(cmd *cobra.Command, out auth.Outcome) error {
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Message())
	if out.OK() {
		return nil
	}
	return &outcomeError{out: out}
}
