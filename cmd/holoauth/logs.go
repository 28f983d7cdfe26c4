// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/holoauth/internal/authapi"
)

func newLogsCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "List or submit work logs for the logged-in user",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(newLogsListCmd(env))
	cmd.AddCommand(newLogsAddCmd(env))
	return cmd
}

func newLogsListCmd(env *cliEnv) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your work logs",
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

			logs, out := s.ctrl.Logs(ctx)
			if !out.OK() {
				return report(cmd, out)
			}
			return render(cmd.OutOrStdout(), format, logs, func() string { return formatLogs(logs) })
		},
	}
	addOutputFlag(cmd, &output)
	return cmd
}

type logEntryFlags struct {
	day      string
	date     string
	week     int
	hours    float64
	task     string
	status   string
	reviewer int64
}

func (f *logEntryFlags) entry(cmd *cobra.Command) (authapi.NewWorkLog, error) {
	entry := authapi.NewWorkLog{
		Day:             f.day,
		Date:            f.date,
		WeekNumber:      f.week,
		WorkingHours:    f.hours,
		TaskDescription: f.task,
		Status:          f.status,
	}
	if cmd.Flags().Changed("reviewer") {
		reviewer := f.reviewer
		entry.ReviewerID = &reviewer
	}
	if err := entry.Validate(); err != nil {
		return authapi.NewWorkLog{}, oops.Code("LOG_ENTRY_INVALID").Wrap(err)
	}
	return entry, nil
}

func newLogsAddCmd(env *cliEnv) *cobra.Command {
	var (
		output string
		flags  = &logEntryFlags{}
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a work log entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseFormat(output)
			if err != nil {
				return err
			}
			entry, err := flags.entry(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			s, err := env.openSession(ctx, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			stored, out := s.ctrl.CreateLog(ctx, entry)
			if !out.OK() {
				return report(cmd, out)
			}
			return render(cmd.OutOrStdout(), format, stored, func() string {
				return out.Message() + "\n" + formatLogs([]authapi.WorkLog{stored})
			})
		},
	}
	addOutputFlag(cmd, &output)
	cmd.Flags().StringVar(&flags.day, "day", "", "day of the week")
	cmd.Flags().StringVar(&flags.date, "date", "", "date worked (YYYY-MM-DD)")
	cmd.Flags().IntVar(&flags.week, "week", 0, "week number (1-53)")
	cmd.Flags().Float64Var(&flags.hours, "hours", 0, "hours worked (0-24)")
	cmd.Flags().StringVar(&flags.task, "task", "", "task description")
	cmd.Flags().StringVar(&flags.status, "status", authapi.DefaultLogStatus, "log status")
	cmd.Flags().Int64Var(&flags.reviewer, "reviewer", 0, "reviewer user id")
	return cmd
}

func formatLogs(logs []authapi.WorkLog) string {
	if len(logs) == 0 {
		return "No work logs\n"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tWEEK\tDAY\tDATE\tHOURS\tSTATUS\tTASK")
	for _, l := range logs {
		_, _ = fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%g\t%s\t%s\n",
			l.ID, l.WeekNumber, l.Day, l.Date, l.WorkingHours, l.Status, l.TaskDescription)
	}
	_ = w.Flush()
	return b.String()
}
