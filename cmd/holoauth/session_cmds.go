// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/authapi"
)

// credentialFlags holds --email, --password and --password-stdin.
type credentialFlags struct {
	email         string
	password      string
	passwordStdin bool
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.email, "email", "", "account email")
	cmd.Flags().StringVar(&f.password, "password", "", "account password")
	cmd.Flags().BoolVar(&f.passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	_ = cmd.MarkFlagRequired("email") //nolint:errcheck // flag defined above
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

func (f *credentialFlags) credentials(cmd *cobra.Command) (authapi.Credentials, error) {
	password := f.password
	if f.passwordStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return authapi.Credentials{}, oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return authapi.Credentials{}, oops.Code("PASSWORD_REQUIRED").Errorf("--password or --password-stdin is required")
	}
	return authapi.Credentials{Email: f.email, Password: password}, nil
}

// credentialCmd builds register and login, which differ only in the
// controller operation they run.
func credentialCmd(env *cliEnv, use, short string, op func(*auth.Controller, context.Context, authapi.Credentials) auth.Outcome) *cobra.Command {
	flags := &credentialFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := flags.credentials(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := env.openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			return report(cmd, op(s.ctrl, ctx, creds))
		},
	}
	flags.register(cmd)
	return cmd
}

func newRegisterCmd(env *cliEnv) *cobra.Command {
	return credentialCmd(env, "register", "Create an account", (*auth.Controller).Register)
}

func newLoginCmd(env *cliEnv) *cobra.Command {
	return credentialCmd(env, "login", "Log in and store the session token", (*auth.Controller).Login)
}

func newMeCmd(env *cliEnv) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Fetch the profile of the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := env.openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			out := s.ctrl.FetchProfile(ctx)
			if !out.OK() {
				return report(cmd, out)
			}
			return render(cmd.OutOrStdout(), format, plainValue(map[string]any(s.ctrl.Profile())), func() string {
				return formatProfile(s.ctrl.Profile())
			})
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

func newLogoutCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := env.openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			return report(cmd, s.ctrl.Logout(ctx))
		},
	}
}

// sessionStatus is the status command's report.
type sessionStatus struct {
	State     auth.State      `json:"state" yaml:"state"`
	Backend   string          `json:"store" yaml:"store"`
	Token     string          `json:"token,omitempty" yaml:"token,omitempty"`
	TokenInfo *auth.TokenInfo `json:"token_info,omitempty" yaml:"token_info,omitempty"`
	Expired   bool            `json:"expired,omitempty" yaml:"expired,omitempty"`
}

func newStatusCmd(env *cliEnv) *cobra.Command {
	var (
		output    string
		showToken bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a session token is stored",
		Long: `Show the session state and the stored token. JWT claims are decoded
without verification; an expired token is flagged but kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := env.openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			st := buildStatus(s.ctrl.Snapshot(), s.cfg.Store.Backend, showToken)
			return render(cmd.OutOrStdout(), format, st, func() string { return formatStatus(st) })
		},
	}
	addOutputFlag(cmd, &output)
	cmd.Flags().BoolVar(&showToken, "show-token", false, "print the full token instead of a masked one")
	return cmd
}

func buildStatus(snap auth.Snapshot, backend string, showToken bool) sessionStatus {
	st := sessionStatus{State: snap.State, Backend: backend}
	if snap.Token == "" {
		return st
	}
	st.Token = auth.MaskToken(snap.Token)
	if showToken {
		st.Token = snap.Token
	}
	if info := auth.InspectToken(snap.Token); info.JWT {
		st.TokenInfo = &info
		st.Expired = info.ExpiredAt(nowFunc())
	}
	return st
}

func formatStatus(st sessionStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "State:   %s\n", st.State)
	fmt.Fprintf(&b, "Store:   %s\n", st.Backend)
	if st.Token == "" {
		return b.String()
	}
	fmt.Fprintf(&b, "Token:   %s\n", st.Token)
	if st.TokenInfo != nil {
		if st.TokenInfo.Subject != "" {
			fmt.Fprintf(&b, "Subject: %s\n", st.TokenInfo.Subject)
		}
		if st.TokenInfo.Role != "" {
			fmt.Fprintf(&b, "Role:    %s\n", st.TokenInfo.Role)
		}
		if exp := st.TokenInfo.ExpiresAt; exp != nil {
			suffix := ""
			if st.Expired {
				suffix = " (expired)"
			}
			fmt.Fprintf(&b, "Expires: %s%s\n", exp.UTC().Format("2006-01-02 15:04:05 MST"), suffix)
		}
	}
	return b.String()
}

// splitUser parses an email:password pair.
func splitUser(spec string) (email, password string, err error) {
	email, password, ok := strings.Cut(spec, ":")
	if !ok || email == "" || password == "" {
		return "", "", oops.Code("USER_SPEC_INVALID").With("user", email).Errorf("expected email:password")
	}
	return email, password, nil
}
