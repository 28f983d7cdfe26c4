// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/auth/mocks"
	"github.com/holomush/holoauth/internal/authapi"
	"github.com/holomush/holoauth/internal/session"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := auth.NewMetrics(reg)
	require.NotNil(t, m)

	// Vec collectors only appear once a label set is used.
	m.OperationsTotal.WithLabelValues("login", "success")
	m.OperationDuration.WithLabelValues("login")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"holoauth_operations_total",
		"holoauth_operation_duration_seconds",
		"holoauth_session_logged_in",
	}, names)
}

func TestController_RecordsMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := auth.NewMetrics(reg)

	api := mocks.NewMockAPI(t)
	api.On("Login", mock.Anything, creds).Return(authapi.Token{AccessToken: "abc123"}, nil)
	api.On("Me", mock.Anything, "abc123").Return(nil, authapi.ErrRejected)

	c, err := auth.NewController(api, session.NewMemoryStore(), auth.WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, c.Restore(ctx))
	assert.InDelta(t, 0, testutil.ToFloat64(m.LoggedIn), 0)

	c.Login(ctx, creds)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LoggedIn), 0)

	c.FetchProfile(ctx)
	c.FetchProfile(ctx)
	c.Logout(ctx)

	assert.InDelta(t, 1, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("login", "success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("fetch_profile", "unauthorized")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("logout", "success")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.LoggedIn), 0)
	assert.Equal(t, 3, testutil.CollectAndCount(m.OperationDuration))
}
