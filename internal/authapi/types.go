// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authapi

import (
	"fmt"
	"log/slog"
	"maps"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Credentials is the body of the register and login requests.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// String omits the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Email:%q}", c.Email)
}

// LogValue omits the password from structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(slog.String("email", c.Email))
}

// Token is the body of a successful login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// Profile is the user record returned by GET /me. Its shape is owned by the
// remote service; numbers are kept as json.Number.
type Profile map[string]any

// Clone returns a shallow copy of the profile.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Email returns the "email" field, or "" when absent.
func (p Profile) Email() string {
	s, _ := p["email"].(string)
	return s
}

// ID returns the "id" field formatted as a string, or "" when absent.
func (p Profile) ID() string {
	v, ok := p["id"]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// WorkLog is one entry in the signed-in user's work log.
type WorkLog struct {
	ID              int64   `json:"id" yaml:"id"`
	UserID          int64   `json:"user_id" yaml:"user_id"`
	WeekNumber      int     `json:"week_number" yaml:"week_number"`
	Day             string  `json:"day" yaml:"day"`
	Date            string  `json:"date,omitempty" yaml:"date,omitempty"`
	WorkingHours    float64 `json:"working_hours" yaml:"working_hours"`
	TaskDescription string  `json:"task_description" yaml:"task_description"`
	Status          string  `json:"status" yaml:"status"`
	ReviewerID      *int64  `json:"reviewer_id,omitempty" yaml:"reviewer_id,omitempty"`
}

// NewWorkLog is the body of a work log submission. Date is YYYY-MM-DD.
type NewWorkLog struct {
	Day             string  `json:"day"`
	Date            string  `json:"date"`
	WeekNumber      int     `json:"week_number"`
	WorkingHours    float64 `json:"working_hours"`
	TaskDescription string  `json:"task_description"`
	Status          string  `json:"status"`
	ReviewerID      *int64  `json:"reviewer_id,omitempty"`
}

// DefaultLogStatus is the status of a newly submitted log.
const DefaultLogStatus = "pending"

// Validate checks an entry before it is sent.
func (n NewWorkLog) Validate() error {
	//nolint:wrapcheck // field errors are reported as-is
	return validation.ValidateStruct(&n,
		validation.Field(&n.Day, validation.Required),
		validation.Field(&n.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&n.WeekNumber, validation.Required, validation.Min(1), validation.Max(53)),
		validation.Field(&n.WorkingHours, validation.Min(0.0), validation.Max(24.0)),
		validation.Field(&n.TaskDescription, validation.Required),
		validation.Field(&n.Status, validation.Required),
	)
}
