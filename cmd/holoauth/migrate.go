// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/config"
)

// newMigrateCmd creates the migrate command group for the Postgres store.
func newMigrateCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres session store schema",
		Long: `Manage the session_tokens table used by the postgres store backend.
The database URL comes from store.postgres.url or --postgres-url.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, env, func(m Migrator) error {
				if err := m.Up(); err != nil {
					return err //nolint:wrapcheck // already coded
				}
				return printVersion(cmd, m)
			})
		},
	})

	var confirm bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations, deleting every stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("down drops the session_tokens table; pass --yes to confirm")
			}
			return withMigrator(cmd, env, func(m Migrator) error {
				if err := m.Down(); err != nil {
					return err //nolint:wrapcheck // already coded
				}
				return printVersion(cmd, m)
			})
		},
	}
	down.Flags().BoolVar(&confirm, "yes", false, "confirm dropping the schema")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, env, func(m Migrator) error { return printVersion(cmd, m) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Set the schema version without migrating and clear the dirty flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseForceVersion(args[0])
			if err != nil {
				return err
			}
			return withMigrator(cmd, env, func(m Migrator) error {
				if err := m.Force(v); err != nil {
					return err //nolint:wrapcheck // already coded
				}
				return printVersion(cmd, m)
			})
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, env *cliEnv, fn func(Migrator) error) error {
	cfg, logger, err := env.loadConfig(cmd)
	if err != nil {
		return err
	}
	url := cfg.Store.Postgres.URL
	if url == "" {
		return oops.Code("CONFIG_INVALID").Errorf("store.postgres.url (or --postgres-url) is required")
	}
	if err := (config.StoreConfig{Backend: config.BackendPostgres, Key: cfg.Store.Key, Postgres: cfg.Store.Postgres}).Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	m, err := env.deps.MigratorFactory(url)
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			logger.Warn("closing migrator", "error", cerr)
		}
	}()
	return fn(m)
}

func printVersion(cmd *cobra.Command, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err //nolint:wrapcheck // already coded
	}
	suffix := ""
	if dirty {
		suffix = " (dirty)"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d%s\n", version, suffix)
	return nil
}

// parseForceVersion parses the argument to migrate force. golang-migrate
// uses -1 for "no version".
func parseForceVersion(s string) (int, error) {
	var v int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v); err != nil {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Wrap(err)
	}
	if v < -1 {
		return 0, oops.Code("INVALID_VERSION").With("input", s).Errorf("version must be -1 or greater")
	}
	return v, nil
}
