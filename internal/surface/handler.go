// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package surface exposes the session controller over HTTP: four action
// endpoints and one read-only view of the observables.
package surface

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/authapi"
)

const maxBodyBytes = 64 << 10

// Controller is the part of *auth.Controller driven by the surface.
type Controller interface {
	Register(ctx context.Context, creds authapi.Credentials) auth.Outcome
	Login(ctx context.Context, creds authapi.Credentials) auth.Outcome
	FetchProfile(ctx context.Context) auth.Outcome
	Logout(ctx context.Context) auth.Outcome
	Snapshot() auth.Snapshot
}

// Route is a pattern and the handler serving it.
type Route struct {
	Pattern string
	Handler http.Handler
}

// Handler serves the session endpoints.
type Handler struct {
	ctrl   Controller
	logger *slog.Logger
}

// New creates a Handler. A nil logger uses slog.Default().
func New(ctrl Controller, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ctrl: ctrl, logger: logger}
}

// Routes lists the endpoints in http.ServeMux pattern syntax.
func (h *Handler) Routes() []Route {
	return []Route{
		{"POST /session/register", http.HandlerFunc(h.handleRegister)},
		{"POST /session/login", http.HandlerFunc(h.handleLogin)},
		{"POST /session/profile", http.HandlerFunc(h.handleProfile)},
		{"POST /session/logout", http.HandlerFunc(h.handleLogout)},
		{"GET /session", http.HandlerFunc(h.handleSession)},
	}
}

// ServeHTTP routes to the session endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	for _, rt := range h.Routes() {
		mux.Handle(rt.Pattern, rt.Handler)
	}
	mux.ServeHTTP(w, r)
}

// View is the JSON rendering of the observables.
type View struct {
	State     auth.State      `json:"state"`
	Token     string          `json:"token,omitempty"`
	TokenInfo *auth.TokenInfo `json:"token_info,omitempty"`
	Profile   authapi.Profile `json:"profile"`
	Last      *auth.Outcome   `json:"last_outcome,omitempty"`
}

// NewView renders a snapshot. The token is masked unless showToken is set.
func NewView(snap auth.Snapshot, showToken bool) View {
	v := View{
		State:   snap.State,
		Profile: snap.Profile,
		Last:    snap.Last,
	}
	if snap.Token != "" {
		v.Token = auth.MaskToken(snap.Token)
		if showToken {
			v.Token = snap.Token
		}
		if info := auth.InspectToken(snap.Token); info.JWT {
			v.TokenInfo = &info
		}
	}
	return v
}

type actionResponse struct {
	Outcome auth.Outcome `json:"outcome"`
	Session View         `json:"session"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.respond(w, r, h.ctrl.Register(r.Context(), creds))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := decodeCredentials(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	h.respond(w, r, h.ctrl.Login(r.Context(), creds))
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.FetchProfile(r.Context()))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.ctrl.Logout(r.Context()))
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	show, _ := strconv.ParseBool(r.URL.Query().Get("show_token"))
	writeJSON(w, http.StatusOK, NewView(h.ctrl.Snapshot(), show))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, out auth.Outcome) {
	h.logger.DebugContext(r.Context(), "surface action",
		"path", r.URL.Path,
		"operation", out.Operation,
		"outcome_id", out.ID.String(),
	)
	writeJSON(w, StatusFor(out), actionResponse{
		Outcome: out,
		Session: NewView(h.ctrl.Snapshot(), false),
	})
}

// StatusFor maps an outcome to an HTTP status code.
func StatusFor(out auth.Outcome) int {
	switch out.Reason {
	case "":
		return http.StatusOK
	case auth.ReasonAlreadyRegistered:
		return http.StatusConflict
	case auth.ReasonUnauthorized:
		return http.StatusUnauthorized
	case auth.ReasonStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

var errEmptyBody = errors.New("request body is required")

func decodeCredentials(r *http.Request) (authapi.Credentials, error) {
	var creds authapi.Credentials
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&creds); err != nil {
		if errors.Is(err, io.EOF) {
			return creds, errEmptyBody
		}
		return creds, err
	}
	return creds, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // client went away
}
