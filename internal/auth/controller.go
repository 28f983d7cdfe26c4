// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/holoauth/internal/authapi"
	"github.com/holomush/holoauth/internal/session"
	"github.com/holomush/holoauth/pkg/errutil"
)

var tracer = otel.Tracer("holoauth/auth")

// API is the remote surface driven by the controller.
// *authapi.Client implements it.
type API interface {
	Register(ctx context.Context, creds authapi.Credentials) error
	Login(ctx context.Context, creds authapi.Credentials) (authapi.Token, error)
	Me(ctx context.Context, token string) (authapi.Profile, error)
	Logs(ctx context.Context, token string) ([]authapi.WorkLog, error)
	CreateLog(ctx context.Context, token string, entry authapi.NewWorkLog) (authapi.WorkLog, error)
}

// State is the externally observable session state.
type State string

// Session states.
const (
	LoggedOut State = "logged_out"
	LoggedIn  State = "logged_in"
)

// Controller is the session state machine.
type Controller struct {
	api     API
	store   session.Store
	logger  *slog.Logger
	metrics *Metrics
	now     func() time.Time

	mu      sync.Mutex
	token   string
	profile authapi.Profile
	last    *Outcome
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithMetrics records operation metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithClock overrides the time source used to stamp outcomes.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController creates a Controller in the LoggedOut state. Call Restore to
// pick up a token persisted by an earlier run.
func NewController(api API, store session.Store, opts ...Option) (*Controller, error) {
	if api == nil {
		return nil, oops.Code("CONTROLLER_INVALID_DEPENDENCY").Errorf("auth API is required")
	}
	if store == nil {
		return nil, oops.Code("CONTROLLER_INVALID_DEPENDENCY").Errorf("session store is required")
	}

	c := &Controller{
		api:    api,
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		return nil, oops.Code("CONTROLLER_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	return c, nil
}

// Restore loads the persisted token. A missing token leaves the controller
// LoggedOut. An unreadable store also leaves it LoggedOut and returns the
// error, keeping the store's code; uncoded errors get SESSION_RESTORE_FAILED.
func (c *Controller) Restore(ctx context.Context) error {
	token, ok, err := c.store.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.profile = nil
	if err != nil {
		c.token = ""
		c.metrics.observeState(LoggedOut)
		builder := oops.With("operation", "load token")
		if errutil.Code(err) == "" {
			builder = builder.Code("SESSION_RESTORE_FAILED")
		}
		return builder.Wrap(err)
	}
	if ok {
		c.token = token
	} else {
		c.token = ""
	}
	c.metrics.observeState(c.stateLocked())
	c.logger.DebugContext(ctx, "session restored",
		"state", c.stateLocked(),
		"token_fingerprint", session.Fingerprint(c.token),
	)
	return nil
}

// Register creates an account. It never changes the session or profile.
func (c *Controller) Register(ctx context.Context, creds authapi.Credentials) Outcome {
	ctx, span, start := c.begin(ctx, OpRegister)
	defer span.End()

	err := c.api.Register(ctx, creds)

	var out Outcome
	switch {
	case err == nil:
		out = c.outcome(OpRegister, "", nil)
	case errors.Is(err, authapi.ErrAlreadyRegistered):
		out = c.outcome(OpRegister, ReasonAlreadyRegistered, err)
	default:
		out = c.outcome(OpRegister, ReasonUnknown, err)
	}

	c.mu.Lock()
	c.recordLocked(out)
	c.mu.Unlock()

	c.finish(ctx, span, start, out, "email", creds.Email)
	return out
}

// Login exchanges credentials for a token, persists it and transitions to
// LoggedIn. On any failure the existing session is left as it was.
func (c *Controller) Login(ctx context.Context, creds authapi.Credentials) Outcome {
	ctx, span, start := c.begin(ctx, OpLogin)
	defer span.End()

	tok, err := c.api.Login(ctx, creds)

	c.mu.Lock()
	var out Outcome
	switch {
	case err != nil:
		out = c.outcome(OpLogin, ReasonUnknown, err)
	default:
		if saveErr := c.store.Save(ctx, tok.AccessToken); saveErr != nil {
			out = c.outcome(OpLogin, ReasonStorageUnavailable, saveErr)
			break
		}
		c.token = tok.AccessToken
		out = c.outcome(OpLogin, "", nil)
	}
	c.recordLocked(out)
	c.mu.Unlock()

	c.finish(ctx, span, start, out,
		"email", creds.Email,
		"token_fingerprint", session.Fingerprint(tok.AccessToken),
	)
	return out
}

// FetchProfile loads the profile with the current token. Without a token it
// fails with ReasonUnauthorized and makes no request. A failure never clears
// the token or a previously fetched profile.
func (c *Controller) FetchProfile(ctx context.Context) Outcome {
	ctx, span, start := c.begin(ctx, OpFetchProfile)
	defer span.End()

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	var out Outcome
	if token == "" {
		out = c.outcome(OpFetchProfile, ReasonUnauthorized, ErrNoSession)
		c.mu.Lock()
		c.recordLocked(out)
		c.mu.Unlock()
		c.finish(ctx, span, start, out)
		return out
	}

	profile, err := c.api.Me(ctx, token)

	c.mu.Lock()
	switch {
	case err != nil:
		out = c.outcome(OpFetchProfile, ReasonUnauthorized, err)
	case c.token != token:
		out = c.outcome(OpFetchProfile, ReasonUnauthorized, ErrSessionChanged)
	default:
		c.profile = profile
		out = c.outcome(OpFetchProfile, "", nil)
	}
	c.recordLocked(out)
	c.mu.Unlock()

	c.finish(ctx, span, start, out, "token_fingerprint", session.Fingerprint(token))
	return out
}

// Logs lists the work logs of the logged-in user. It follows the
// FetchProfile rules: no request without a token, every failure is
// ReasonUnauthorized, and the session is never changed.
func (c *Controller) Logs(ctx context.Context) ([]authapi.WorkLog, Outcome) {
	var logs []authapi.WorkLog
	out := c.withToken(ctx, OpListLogs, func(ctx context.Context, token string) error {
		var err error
		logs, err = c.api.Logs(ctx, token)
		return err
	})
	if !out.OK() {
		return nil, out
	}
	return logs, out
}

// CreateLog records a work log for the logged-in user under the same rules
// as Logs. entry is sent as given; callers validate it first.
func (c *Controller) CreateLog(ctx context.Context, entry authapi.NewWorkLog) (authapi.WorkLog, Outcome) {
	var stored authapi.WorkLog
	out := c.withToken(ctx, OpCreateLog, func(ctx context.Context, token string) error {
		var err error
		stored, err = c.api.CreateLog(ctx, token, entry)
		return err
	})
	return stored, out
}

func (c *Controller) withToken(ctx context.Context, op Operation, call func(context.Context, string) error) Outcome {
	ctx, span, start := c.begin(ctx, op)
	defer span.End()

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	var out Outcome
	if token == "" {
		out = c.outcome(op, ReasonUnauthorized, ErrNoSession)
		c.mu.Lock()
		c.recordLocked(out)
		c.mu.Unlock()
		c.finish(ctx, span, start, out)
		return out
	}

	if err := call(ctx, token); err != nil {
		out = c.outcome(op, ReasonUnauthorized, err)
	} else {
		out = c.outcome(op, "", nil)
	}
	c.mu.Lock()
	c.recordLocked(out)
	c.mu.Unlock()

	c.finish(ctx, span, start, out, "token_fingerprint", session.Fingerprint(token))
	return out
}

// Logout clears the token and the profile. It makes no network call and
// succeeds from any state unless the store cannot be cleared, in which case
// the profile is still dropped but the token is kept so memory and store
// continue to agree.
func (c *Controller) Logout(ctx context.Context) Outcome {
	ctx, span, start := c.begin(ctx, OpLogout)
	defer span.End()

	c.mu.Lock()
	c.profile = nil
	var out Outcome
	if err := c.store.Clear(ctx); err != nil {
		out = c.outcome(OpLogout, ReasonStorageUnavailable, err)
	} else {
		c.token = ""
		out = c.outcome(OpLogout, "", nil)
	}
	c.recordLocked(out)
	c.mu.Unlock()

	c.finish(ctx, span, start, out)
	return out
}

// State returns LoggedIn when a token is held.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Token returns the current token; ok is false when logged out.
func (c *Controller) Token() (token string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token, c.token != ""
}

// Profile returns a copy of the last fetched profile, or nil.
func (c *Controller) Profile() authapi.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile.Clone()
}

// LastOutcome returns the outcome of the most recently completed operation.
func (c *Controller) LastOutcome() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return Outcome{}, false
	}
	return *c.last, true
}

// Snapshot is a consistent view of all observables. Profile encodes as null
// until one is fetched; a fetched empty profile encodes as {}.
type Snapshot struct {
	State   State           `json:"state"`
	Token   string          `json:"token,omitempty"`
	Profile authapi.Profile `json:"profile"`
	Last    *Outcome        `json:"last_outcome,omitempty"`
}

// Snapshot returns all observables read under one lock.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		State:   c.stateLocked(),
		Token:   c.token,
		Profile: c.profile.Clone(),
	}
	if c.last != nil {
		last := *c.last
		snap.Last = &last
	}
	return snap
}

func (c *Controller) stateLocked() State {
	if c.token == "" {
		return LoggedOut
	}
	return LoggedIn
}

func (c *Controller) recordLocked(out Outcome) {
	c.last = &out
	c.metrics.observeState(c.stateLocked())
}

func (c *Controller) outcome(op Operation, reason Reason, err error) Outcome {
	return Outcome{
		ID:        ulid.Make(),
		Operation: op,
		Reason:    reason,
		At:        c.now(),
		Err:       err,
	}
}

// begin detaches the operation from the caller's cancellation. Once started
// an operation runs to completion or failure; context values are kept.
func (c *Controller) begin(ctx context.Context, op Operation) (context.Context, trace.Span, time.Time) {
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "session."+string(op),
		trace.WithAttributes(attribute.String("session.operation", string(op))),
	)
	return ctx, span, time.Now()
}

// finish logs the outcome, records metrics and closes out the span status.
func (c *Controller) finish(ctx context.Context, span trace.Span, start time.Time, out Outcome, attrs ...any) {
	elapsed := time.Since(start)
	c.metrics.observe(out, elapsed)

	span.SetAttributes(
		attribute.Bool("session.success", out.OK()),
		attribute.String("session.outcome_id", out.ID.String()),
	)

	fields := []any{
		"operation", out.Operation,
		"outcome_id", out.ID.String(),
		"duration", elapsed,
	}
	fields = append(fields, attrs...)

	if out.OK() {
		span.SetStatus(codes.Ok, "")
		c.logger.InfoContext(ctx, "session operation succeeded", fields...)
		return
	}

	span.SetAttributes(attribute.String("session.reason", string(out.Reason)))
	if out.Err != nil {
		span.RecordError(out.Err)
	}
	span.SetStatus(codes.Error, string(out.Reason))
	fields = append(fields, "reason", out.Reason)
	if out.Err != nil {
		fields = append(fields, "error", out.Err.Error())
	}
	c.logger.WarnContext(ctx, "session operation failed", fields...)
}
