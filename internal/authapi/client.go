// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package authapi is the HTTP client for the credential-issuing service
// (POST /register, POST /login) and the protected-resource service
// (GET /me, GET and POST /logs/).
//
// Responses are classified once, here: every returned error wraps one of the
// package sentinels and carries an oops code.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("holoauth/authapi")

// Endpoint paths relative to the base URL.
const (
	registerPath = "register"
	loginPath    = "login"
	mePath       = "me"
	logsPath     = "logs/"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 1 << 20

// RequestIDHeader carries a per-request UUID for correlation with server logs.
const RequestIDHeader = "X-Request-ID"

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the service root, e.g. "http://127.0.0.1:8000".
	BaseURL string

	// HTTPClient is used for requests. Defaults to a client with Timeout.
	HTTPClient *http.Client

	// Timeout applies when HTTPClient is nil. Zero means no timeout.
	Timeout time.Duration

	// UserAgent is sent with every request when non-empty.
	UserAgent string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client talks to the credential-issuing and protected-resource services.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// NewClient validates cfg and creates a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, oops.Code("AUTHAPI_CONFIG_INVALID").Errorf("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, oops.Code("AUTHAPI_CONFIG_INVALID").With("base_url", cfg.BaseURL).Wrap(err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, oops.Code("AUTHAPI_CONFIG_INVALID").
			With("base_url", cfg.BaseURL).
			Errorf("base URL scheme must be http or https")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}, nil
}

// Register creates an account. A duplicate email yields ErrAlreadyRegistered;
// every other failure yields ErrRejected, ErrTransport or ErrMalformed.
func (c *Client) Register(ctx context.Context, creds Credentials) error {
	resp, err := c.do(ctx, "register", http.MethodPost, registerPath, "", creds)
	if err != nil {
		return err
	}
	if resp.ok() {
		return nil
	}
	if resp.detail() == AlreadyRegisteredDetail {
		return oops.Code("AUTH_ALREADY_REGISTERED").
			With("status", resp.status).
			Wrap(ErrAlreadyRegistered)
	}
	return resp.rejected("AUTH_REGISTER_REJECTED")
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (Token, error) {
	resp, err := c.do(ctx, "login", http.MethodPost, loginPath, "", creds)
	if err != nil {
		return Token{}, err
	}
	if !resp.ok() {
		return Token{}, resp.rejected("AUTH_LOGIN_REJECTED")
	}

	var tok Token
	if err := json.Unmarshal(resp.body, &tok); err != nil {
		return Token{}, oops.Code("AUTH_LOGIN_MALFORMED").
			With("status", resp.status).
			Wrap(fmt.Errorf("%w: %w", ErrMalformed, err))
	}
	if tok.AccessToken == "" {
		return Token{}, oops.Code("AUTH_LOGIN_MALFORMED").
			With("status", resp.status).
			Wrapf(ErrMalformed, "access_token missing from login response")
	}
	return tok, nil
}

// Me fetches the profile of the user identified by token.
func (c *Client) Me(ctx context.Context, token string) (Profile, error) {
	resp, err := c.do(ctx, "me", http.MethodGet, mePath, token, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.rejected("AUTH_PROFILE_REJECTED")
	}

	dec := json.NewDecoder(bytes.NewReader(resp.body))
	dec.UseNumber()
	var profile Profile
	if err := dec.Decode(&profile); err != nil {
		return nil, oops.Code("AUTH_PROFILE_MALFORMED").
			With("status", resp.status).
			Wrap(fmt.Errorf("%w: %w", ErrMalformed, err))
	}
	if profile == nil {
		return nil, oops.Code("AUTH_PROFILE_MALFORMED").
			With("status", resp.status).
			Wrapf(ErrMalformed, "profile is not a JSON object")
	}
	return profile, nil
}

// Logs lists the work logs of the user identified by token.
func (c *Client) Logs(ctx context.Context, token string) ([]WorkLog, error) {
	resp, err := c.do(ctx, "list_logs", http.MethodGet, logsPath, token, nil)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.rejected("AUTH_LOGS_REJECTED")
	}

	var logs []WorkLog
	if err := json.Unmarshal(resp.body, &logs); err != nil {
		return nil, oops.Code("AUTH_LOGS_MALFORMED").
			With("status", resp.status).
			Wrap(fmt.Errorf("%w: %w", ErrMalformed, err))
	}
	if logs == nil {
		logs = []WorkLog{}
	}
	return logs, nil
}

// CreateLog submits a work log entry for the user identified by token and
// returns the stored entry.
func (c *Client) CreateLog(ctx context.Context, token string, entry NewWorkLog) (WorkLog, error) {
	resp, err := c.do(ctx, "create_log", http.MethodPost, logsPath, token, entry)
	if err != nil {
		return WorkLog{}, err
	}
	if !resp.ok() {
		return WorkLog{}, resp.rejected("AUTH_LOG_CREATE_REJECTED")
	}

	var stored WorkLog
	if err := json.Unmarshal(resp.body, &stored); err != nil {
		return WorkLog{}, oops.Code("AUTH_LOG_CREATE_MALFORMED").
			With("status", resp.status).
			Wrap(fmt.Errorf("%w: %w", ErrMalformed, err))
	}
	return stored, nil
}

// response is a fully-read HTTP response.
type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

// detail extracts a string "detail" field from an error body.
func (r *response) detail() string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(r.body, &body); err != nil || len(body.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err != nil {
		return ""
	}
	return s
}

func (r *response) rejected(code string) error {
	builder := oops.Code(code).With("status", r.status)
	if d := r.detail(); d != "" {
		builder = builder.With("detail", d)
	}
	return builder.Wrapf(ErrRejected, "service responded %d", r.status)
}

// do sends one request and reads the response body. Only transport and
// encoding problems are returned as errors; HTTP status is left to the caller.
func (c *Client) do(ctx context.Context, op, method, path, bearer string, payload any) (*response, error) {
	ctx, span := tracer.Start(ctx, "authapi."+op)
	defer span.End()

	requestID := uuid.NewString()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", "/"+path),
		attribute.String("request_id", requestID),
	)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "encode request")
			return nil, oops.Code("AUTH_REQUEST_ENCODE_FAILED").
				With("operation", op).
				Wrap(fmt.Errorf("%w: %w", ErrTransport, err))
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, oops.Code("AUTH_REQUEST_BUILD_FAILED").
			With("operation", op).
			Wrap(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if bearer != "" || path == mePath {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		c.logger.DebugContext(ctx, "auth service request failed",
			"operation", op,
			"request_id", requestID,
			"error", err,
		)
		return nil, oops.Code("AUTH_TRANSPORT_FAILED").
			With("operation", op).
			With("url", endpoint.String()).
			Wrap(fmt.Errorf("%w: %w", ErrTransport, err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		return nil, oops.Code("AUTH_TRANSPORT_FAILED").
			With("operation", op).
			With("status", resp.StatusCode).
			Wrap(fmt.Errorf("%w: %w", ErrTransport, err))
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, strings.TrimSpace(http.StatusText(resp.StatusCode)))
	}
	c.logger.DebugContext(ctx, "auth service responded",
		"operation", op,
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	return &response{status: resp.StatusCode, body: data}, nil
}
