// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credsvc

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// Response details returned by the service.
const (
	DetailAlreadyRegistered  = "Email already registered"
	DetailBadCredentials     = "Incorrect email or password"
	DetailInvalidCredentials = "Could not validate credentials"
	DetailNotAuthenticated   = "Not authenticated"
)

// DefaultTokenTTL matches the backend's fallback token lifetime.
const DefaultTokenTTL = 15 * time.Minute

const maxBodyBytes = 64 << 10

// Config configures a Service.
type Config struct {
	// Secret signs issued tokens. A random key is generated when empty.
	Secret []byte
	// TokenTTL is the lifetime of issued tokens. Defaults to DefaultTokenTTL.
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Logger     *slog.Logger
	Now        func() time.Time
}

type user struct {
	id           int64
	email        string
	passwordHash []byte
	role         string
}

// Service holds registered users in memory.
type Service struct {
	secret []byte
	ttl    time.Duration
	cost   int
	logger *slog.Logger
	now    func() time.Time

	mu        sync.RWMutex
	users     map[string]*user
	nextID    int64
	logs      map[int64][]workLog
	nextLogID int64
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	secret := cfg.Secret
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, oops.Code("CREDSVC_SECRET_FAILED").Wrap(err)
		}
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, oops.Code("CREDSVC_CONFIG_INVALID").
			With("bcrypt_cost", cfg.BcryptCost).
			Errorf("bcrypt cost out of range")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		secret: secret,
		ttl:    cfg.TokenTTL,
		cost:   cfg.BcryptCost,
		logger: cfg.Logger,
		now:    cfg.Now,
		users:     make(map[string]*user),
		nextID:    1,
		logs:      make(map[int64][]workLog),
		nextLogID: 1,
	}, nil
}

// ErrAlreadyRegistered is returned by AddUser for a duplicate email.
var ErrAlreadyRegistered = errors.New(DetailAlreadyRegistered)

// AddUser registers a user directly, bypassing HTTP.
func (s *Service) AddUser(email, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, oops.Code("CREDSVC_HASH_FAILED").Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(email)
	if _, exists := s.users[key]; exists {
		return 0, oops.Code("CREDSVC_DUPLICATE_EMAIL").With("email", email).Wrap(ErrAlreadyRegistered)
	}
	u := &user{id: s.nextID, email: email, passwordHash: hash}
	s.nextID++
	s.users[key] = u
	return u.id, nil
}

// SetRole sets the role claim carried by tokens issued to email.
func (s *Service) SetRole(email, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return oops.Code("CREDSVC_USER_NOT_FOUND").With("email", email).Errorf("unknown user")
	}
	u.role = role
	return nil
}

// Users returns the number of registered users.
func (s *Service) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// IssueToken signs a token for email. It does not check that the user exists.
func (s *Service) IssueToken(email string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": email,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	}
	s.mu.RLock()
	if u, ok := s.users[strings.ToLower(email)]; ok && u.role != "" {
		claims["role"] = u.role
	}
	s.mu.RUnlock()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", oops.Code("CREDSVC_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Handler returns the HTTP surface: POST /register, POST /login, GET /me
// and GET or POST /logs/.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /me", s.handleMe)
	mux.HandleFunc("GET /logs/{$}", s.handleListLogs)
	mux.HandleFunc("GET /logs", s.handleListLogs)
	mux.HandleFunc("POST /logs/{$}", s.handleCreateLog)
	mux.HandleFunc("POST /logs", s.handleCreateLog)
	return mux
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentials) Validate() error {
	//nolint:wrapcheck // validation errors are rendered as-is
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&c.Password, validation.Required),
	)
}

type profile struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func (s *Service) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "credential service is running"})
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	id, err := s.AddUser(creds.Email, creds.Password)
	switch {
	case errors.Is(err, ErrAlreadyRegistered):
		writeDetail(w, http.StatusBadRequest, DetailAlreadyRegistered)
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "register failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	s.logger.InfoContext(r.Context(), "user registered", "user_id", id, "email", creds.Email)
	writeJSON(w, http.StatusOK, profile{ID: id, Email: creds.Email})
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := s.decodeCredentials(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	u, found := s.users[strings.ToLower(creds.Email)]
	s.mu.RUnlock()
	if !found || bcrypt.CompareHashAndPassword(u.passwordHash, []byte(creds.Password)) != nil {
		s.logger.InfoContext(r.Context(), "login rejected", "email", creds.Email)
		writeDetail(w, http.StatusUnauthorized, DetailBadCredentials)
		return
	}

	token, err := s.IssueToken(u.email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "token signing failed", "error", err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, profile{ID: u.id, Email: u.email})
}

// currentUser resolves the bearer token or writes the 403/401 response.
func (s *Service) currentUser(w http.ResponseWriter, r *http.Request) (*user, bool) {
	raw, ok := bearerToken(r)
	if !ok {
		writeDetail(w, http.StatusForbidden, DetailNotAuthenticated)
		return nil, false
	}

	u, err := s.authenticate(raw)
	if err != nil {
		s.logger.DebugContext(r.Context(), "token rejected", "error", err)
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, DetailInvalidCredentials)
		return nil, false
	}
	return u, true
}

func (s *Service) authenticate(raw string) (*user, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	tok, err := parser.Parse(raw, func(*jwt.Token) (any, error) { return s.secret, nil })
	if err != nil {
		return nil, oops.Code("CREDSVC_TOKEN_INVALID").Wrap(err)
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return nil, oops.Code("CREDSVC_TOKEN_INVALID").Errorf("token has no subject")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(sub)]
	if !ok {
		return nil, oops.Code("CREDSVC_USER_NOT_FOUND").With("email", sub).Errorf("unknown subject")
	}
	return u, nil
}

func (s *Service) decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var creds credentials
	if !decodeBody(w, r, &creds) {
		return credentials{}, false
	}
	return creds, true
}

// decodeBody reads a JSON body into v and validates it, writing a 422
// response on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v validation.Validatable) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"type": "json_invalid", "msg": "JSON decode error"}},
		})
		return false
	}

	if err := v.Validate(); err != nil {
		var fields validation.Errors
		details := []map[string]string{}
		if errors.As(err, &fields) {
			for name, ferr := range fields {
				details = append(details, map[string]string{"loc": name, "msg": ferr.Error()})
			}
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": details})
		return false
	}
	return true
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // client went away
}
