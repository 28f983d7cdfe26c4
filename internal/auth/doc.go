// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package auth is the client-side session state machine.
//
// # States
//
// The session is LoggedOut while no token is held and LoggedIn otherwise.
// The fetched profile is a volatile sub-state that only exists while
// LoggedIn.
//
// # Operations
//
// Controller exposes four operations, each returning an Outcome instead of an
// error:
//   - Register - pass-through to the credential service; never touches state
//   - Login - persists the issued token, then transitions to LoggedIn
//   - FetchProfile - loads the profile with the current token
//   - Logout - clears the token and the profile, no network call
//
// Failures are classified into a closed set of reasons (AlreadyRegistered,
// Unknown, Unauthorized, StorageUnavailable). Nothing is retried.
//
// # Concurrency
//
// Operations may run concurrently. Network calls happen outside the
// controller lock; state changes (including the store write) happen under it,
// so the in-memory token and the store agree whenever no operation is
// mid-update, and the last operation to complete decides the final state.
package auth
