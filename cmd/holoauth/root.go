// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/config"
)

// NewRootCmd creates the root command for the holoauth CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()
	var configFile string

	cmd := &cobra.Command{
		Use:   "holoauth",
		Short: "holoauth - session client for a token-issuing credential service",
		Long: `holoauth registers accounts, logs in, keeps the bearer token in a
durable session store and fetches the signed-in user's profile.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/holoauth/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	env := &cliEnv{deps: deps, configFile: &configFile}

	cmd.AddCommand(newRegisterCmd(env))
	cmd.AddCommand(newLoginCmd(env))
	cmd.AddCommand(newMeCmd(env))
	cmd.AddCommand(newLogsCmd(env))
	cmd.AddCommand(newLogoutCmd(env))
	cmd.AddCommand(newStatusCmd(env))
	cmd.AddCommand(newServeCmd(env))
	cmd.AddCommand(newMigrateCmd(env))
	cmd.AddCommand(newDevServerCmd(env))

	return cmd
}
