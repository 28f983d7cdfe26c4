// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credsvc_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/holomush/holoauth/internal/credsvc"
	"github.com/holomush/holoauth/pkg/errutil"
)

var testSecret = []byte("test-secret")

func newService(t *testing.T, now func() time.Time) (*credsvc.Service, *httptest.Server) {
	t.Helper()
	svc, err := credsvc.New(credsvc.Config{
		Secret:     testSecret,
		BcryptCost: bcrypt.MinCost,
		Now:        now,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(svc.Handler())
	t.Cleanup(srv.Close)
	return svc, srv
}

func post(t *testing.T, url string, body any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return decode(t, resp)
}

func getMe(t *testing.T, url, authz string) (int, map[string]any, http.Header) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url+"/me", nil)
	require.NoError(t, err)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	status, body := decode(t, resp)
	return status, body, resp.Header
}

func decode(t *testing.T, resp *http.Response) (int, map[string]any) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return resp.StatusCode, body
}

func TestNew_RejectsBadCost(t *testing.T) {
	_, err := credsvc.New(credsvc.Config{BcryptCost: 99})
	errutil.AssertErrorCode(t, err, "CREDSVC_CONFIG_INVALID")
}

func TestService_RegisterLoginMe(t *testing.T) {
	svc, srv := newService(t, nil)
	creds := map[string]string{"email": "a@b.com", "password": "pw"}

	status, body := post(t, srv.URL+"/register", creds)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@b.com", body["email"])
	assert.EqualValues(t, 1, body["id"])
	assert.Equal(t, 1, svc.Users())

	status, body = post(t, srv.URL+"/register", creds)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, credsvc.DetailAlreadyRegistered, body["detail"])

	status, body = post(t, srv.URL+"/login", creds)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "bearer", body["token_type"])
	token, ok := body["access_token"].(string)
	require.True(t, ok)

	status, body, _ = getMe(t, srv.URL, "Bearer "+token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "a@b.com", body["email"])
	assert.EqualValues(t, 1, body["id"])
}

func TestService_LoginRejectsBadPassword(t *testing.T) {
	svc, srv := newService(t, nil)
	_, err := svc.AddUser("a@b.com", "pw")
	require.NoError(t, err)

	for _, creds := range []map[string]string{
		{"email": "a@b.com", "password": "wrong"},
		{"email": "nobody@b.com", "password": "pw"},
	} {
		status, body := post(t, srv.URL+"/login", creds)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, credsvc.DetailBadCredentials, body["detail"])
	}
}

func TestService_RegisterValidation(t *testing.T) {
	_, srv := newService(t, nil)

	status, body := post(t, srv.URL+"/register", map[string]string{"email": "not-an-email", "password": "pw"})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.NotEmpty(t, body["detail"])

	resp, err := http.Post(srv.URL+"/register", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	status, _ = decode(t, resp)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestService_MeRejections(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var now atomic.Int64
	now.Store(base.UnixNano())
	svc, srv := newService(t, func() time.Time { return time.Unix(0, now.Load()).UTC() })
	_, err := svc.AddUser("a@b.com", "pw")
	require.NoError(t, err)
	valid, err := svc.IssueToken("a@b.com")
	require.NoError(t, err)

	t.Run("missing header", func(t *testing.T) {
		status, body, _ := getMe(t, srv.URL, "")
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, credsvc.DetailNotAuthenticated, body["detail"])
	})

	t.Run("garbage token", func(t *testing.T) {
		status, body, hdr := getMe(t, srv.URL, "Bearer garbage")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, credsvc.DetailInvalidCredentials, body["detail"])
		assert.Equal(t, "Bearer", hdr.Get("WWW-Authenticate"))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "a@b.com",
			"exp": base.Add(time.Hour).Unix(),
		}).SignedString([]byte("other"))
		require.NoError(t, err)
		status, _, _ := getMe(t, srv.URL, "Bearer "+forged)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("unknown subject", func(t *testing.T) {
		orphan, err := svc.IssueToken("ghost@b.com")
		require.NoError(t, err)
		status, _, _ := getMe(t, srv.URL, "Bearer "+orphan)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("expired", func(t *testing.T) {
		now.Store(base.Add(credsvc.DefaultTokenTTL + time.Second).UnixNano())
		defer now.Store(base.UnixNano())
		status, _, _ := getMe(t, srv.URL, "Bearer "+valid)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("valid", func(t *testing.T) {
		status, _, _ := getMe(t, srv.URL, "Bearer "+valid)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestService_SetRole(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.AddUser("a@b.com", "pw")
	require.NoError(t, err)
	require.NoError(t, svc.SetRole("a@b.com", "supervisor"))
	errutil.AssertErrorCode(t, svc.SetRole("x@b.com", "admin"), "CREDSVC_USER_NOT_FOUND")

	token, err := svc.IssueToken("a@b.com")
	require.NoError(t, err)
	claims := jwt.MapClaims{}
	_, err = jwt.NewParser().ParseWithClaims(token, claims, func(*jwt.Token) (any, error) { return testSecret, nil })
	require.NoError(t, err)
	assert.Equal(t, "supervisor", claims["role"])
	assert.Equal(t, "a@b.com", claims["sub"])
}

func TestService_AddUserDuplicateIsCaseInsensitive(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.AddUser("A@b.com", "pw")
	require.NoError(t, err)
	_, err = svc.AddUser("a@B.com", "pw")
	assert.ErrorIs(t, err, credsvc.ErrAlreadyRegistered)
}
