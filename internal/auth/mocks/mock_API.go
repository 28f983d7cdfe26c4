// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package mocks holds testify mocks for the auth package interfaces, laid
// out the way mockery renders them.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/holomush/holoauth/internal/authapi"
)

// NewMockAPI creates a new instance of MockAPI. It also registers a testing
// interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockAPI(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockAPI {
	m := &MockAPI{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

// MockAPI is a testify mock of the API type
type MockAPI struct {
	mock.Mock
}

// Register provides a mock function for the type MockAPI
func (_m *MockAPI) Register(ctx context.Context, creds authapi.Credentials) error {
	ret := _m.Called(ctx, creds)

	if len(ret) == 0 {
		panic("no return value specified for Register")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, authapi.Credentials) error); ok {
		r0 = rf(ctx, creds)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Login provides a mock function for the type MockAPI
func (_m *MockAPI) Login(ctx context.Context, creds authapi.Credentials) (authapi.Token, error) {
	ret := _m.Called(ctx, creds)

	if len(ret) == 0 {
		panic("no return value specified for Login")
	}

	var r0 authapi.Token
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, authapi.Credentials) (authapi.Token, error)); ok {
		return rf(ctx, creds)
	}
	if rf, ok := ret.Get(0).(func(context.Context, authapi.Credentials) authapi.Token); ok {
		r0 = rf(ctx, creds)
	} else {
		r0 = ret.Get(0).(authapi.Token)
	}

	if rf, ok := ret.Get(1).(func(context.Context, authapi.Credentials) error); ok {
		r1 = rf(ctx, creds)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Me provides a mock function for the type MockAPI
func (_m *MockAPI) Me(ctx context.Context, token string) (authapi.Profile, error) {
	ret := _m.Called(ctx, token)

	if len(ret) == 0 {
		panic("no return value specified for Me")
	}

	var r0 authapi.Profile
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (authapi.Profile, error)); ok {
		return rf(ctx, token)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) authapi.Profile); ok {
		r0 = rf(ctx, token)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(authapi.Profile)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, token)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Logs provides a mock function with given fields: ctx, token
func (_m *MockAPI) Logs(ctx context.Context, token string) ([]authapi.WorkLog, error) {
	ret := _m.Called(ctx, token)

	if len(ret) == 0 {
		panic("no return value specified for Logs")
	}

	var r0 []authapi.WorkLog
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]authapi.WorkLog, error)); ok {
		return rf(ctx, token)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []authapi.WorkLog); ok {
		r0 = rf(ctx, token)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]authapi.WorkLog)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, token)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CreateLog provides a mock function with given fields: ctx, token, entry
func (_m *MockAPI) CreateLog(ctx context.Context, token string, entry authapi.NewWorkLog) (authapi.WorkLog, error) {
	ret := _m.Called(ctx, token, entry)

	if len(ret) == 0 {
		panic("no return value specified for CreateLog")
	}

	var r0 authapi.WorkLog
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, authapi.NewWorkLog) (authapi.WorkLog, error)); ok {
		return rf(ctx, token, entry)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, authapi.NewWorkLog) authapi.WorkLog); ok {
		r0 = rf(ctx, token, entry)
	} else {
		r0 = ret.Get(0).(authapi.WorkLog)
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, authapi.NewWorkLog) error); ok {
		r1 = rf(ctx, token, entry)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}
