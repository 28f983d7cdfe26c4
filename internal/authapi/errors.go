// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package authapi

import "errors"

// Classification sentinels. Every error returned by Client wraps exactly one
// of them; use errors.Is to inspect.
var (
	// ErrAlreadyRegistered is returned by Register when the service reports
	// the email as taken.
	ErrAlreadyRegistered = errors.New("email already registered")

	// ErrRejected is returned for any other non-2xx response.
	ErrRejected = errors.New("request rejected by service")

	// ErrTransport is returned when the request could not be completed.
	ErrTransport = errors.New("transport failure")

	// ErrMalformed is returned when a 2xx response body cannot be used.
	ErrMalformed = errors.New("malformed response")
)

// AlreadyRegisteredDetail is the error detail the credential service sends
// for a duplicate registration.
const AlreadyRegisteredDetail = "Email already registered"
