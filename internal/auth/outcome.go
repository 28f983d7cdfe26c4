// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Operation names a controller operation.
type Operation string

// Controller operations.
const (
	OpRegister     Operation = "register"
	OpLogin        Operation = "login"
	OpFetchProfile Operation = "fetch_profile"
	OpLogout       Operation = "logout"
	OpListLogs     Operation = "list_logs"
	OpCreateLog    Operation = "create_log"
)

// Reason classifies a failed operation. The zero value means success.
type Reason string

// Failure reasons.
const (
	// ReasonAlreadyRegistered: the credential service reports the email as taken.
	ReasonAlreadyRegistered Reason = "already_registered"
	// ReasonUnknown: any other register or login failure.
	ReasonUnknown Reason = "unknown"
	// ReasonUnauthorized: a token-bearing request (profile or work logs)
	// failed with the current token.
	ReasonUnauthorized Reason = "unauthorized"
	// ReasonStorageUnavailable: the session store could not be written.
	ReasonStorageUnavailable Reason = "storage_unavailable"
)

// Errors attached to outcomes that fail without a remote call.
var (
	// ErrNoSession means a token-bearing operation was called while logged out.
	ErrNoSession = errors.New("no session token")

	// ErrSessionChanged means the token changed while a profile fetch was in flight.
	ErrSessionChanged = errors.New("session changed during profile fetch")
)

// Outcome is the classified result of one controller operation.
type Outcome struct {
	ID        ulid.ULID
	Operation Operation
	Reason    Reason
	At        time.Time

	// Err is the underlying cause of a failure. It is for logging and is
	// never needed to decide how to react.
	Err error
}

// OK reports whether the operation succeeded.
func (o Outcome) OK() bool {
	return o.Reason == ""
}

// Message returns the user-facing text for the outcome.
func (o Outcome) Message() string {
	switch o.Operation {
	case OpRegister:
		switch o.Reason {
		case "":
			return "Registration successful!"
		case ReasonAlreadyRegistered:
			return "This email has already been registered."
		}
		return "Registration failed"
	case OpLogin:
		switch o.Reason {
		case "":
			return "Login successful!"
		case ReasonStorageUnavailable:
			return "Login failed: session could not be saved"
		}
		return "Login failed"
	case OpFetchProfile:
		if o.OK() {
			return "Profile loaded"
		}
		return "Token invalid or expired"
	case OpListLogs:
		if o.OK() {
			return "Logs loaded"
		}
		return "Token invalid or expired"
	case OpCreateLog:
		if o.OK() {
			return "Log saved"
		}
		return "Token invalid or expired"
	case OpLogout:
		if o.OK() {
			return "Logged out!"
		}
		return "Logout failed: session could not be cleared"
	}
	return string(o.Operation)
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if o.OK() {
		return fmt.Sprintf("%s: success", o.Operation)
	}
	return fmt.Sprintf("%s: failure(%s)", o.Operation, o.Reason)
}

// MarshalJSON renders the outcome for presentation. Err is omitted.
func (o Outcome) MarshalJSON() ([]byte, error) {
	//nolint:wrapcheck // encoding/json passthrough
	return json.Marshal(struct {
		ID        string    `json:"id"`
		Operation Operation `json:"operation"`
		Success   bool      `json:"success"`
		Reason    Reason    `json:"reason,omitempty"`
		Message   string    `json:"message"`
		At        time.Time `json:"at"`
	}{
		ID:        o.ID.String(),
		Operation: o.Operation,
		Success:   o.OK(),
		Reason:    o.Reason,
		Message:   o.Message(),
		At:        o.At,
	})
}
