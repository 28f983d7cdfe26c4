// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/holoauth/internal/authapi"
)

// outputFormat selects how results are printed.
type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

// nowFunc is the clock used for expiry hints.
var nowFunc = time.Now

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", string(formatText), "output format (text, json, yaml)")
}

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	}
	return "", oops.Code("OUTPUT_FORMAT_INVALID").With("format", s).Errorf("output must be text, json or yaml")
}

// render writes v as JSON or YAML, or the text produced by text.
func render(w io.Writer, format outputFormat, v any, text func() string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return oops.Code("OUTPUT_WRITE_FAILED").With("format", format).Wrap(err)
		}
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return oops.Code("OUTPUT_WRITE_FAILED").With("format", format).Wrap(err)
		}
		if err := enc.Close(); err != nil {
			return oops.Code("OUTPUT_WRITE_FAILED").With("format", format).Wrap(err)
		}
	default:
		if _, err := io.WriteString(w, text()); err != nil {
			return oops.Code("OUTPUT_WRITE_FAILED").With("format", format).Wrap(err)
		}
	}
	return nil
}

// plainValue converts json.Number leaves to int64 or float64 so YAML prints
// them as numbers.
func plainValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = plainValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = plainValue(val)
		}
		return out
	}
	return v
}

// formatProfile prints id and email first, then remaining fields sorted.
func formatProfile(p authapi.Profile) string {
	var b strings.Builder
	keys := make([]string, 0, len(p))
	for k := range p {
		if k != "id" && k != "email" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	for _, k := range append([]string{"id", "email"}, keys...) {
		v, ok := p[k]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %v\n", k, v)
	}
	return b.String()
}
