// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package credsvc is an in-memory reference credential service speaking the
// same register/login/me protocol as the production backend. It backs the
// devserver command and the end-to-end tests of the session client.
package credsvc
