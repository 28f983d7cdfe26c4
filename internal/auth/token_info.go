// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo describes what can be read from a bearer token without
// verifying it. The client holds no key, so nothing here is trusted; it is
// for display only.
type TokenInfo struct {
	// JWT is false when the token is not a parseable JWT; the other fields
	// are then empty.
	JWT       bool       `json:"jwt" yaml:"jwt"`
	Subject   string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Role      string     `json:"role,omitempty" yaml:"role,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// InspectToken decodes the claims of a JWT bearer token without checking its
// signature.
func InspectToken(token string) TokenInfo {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}
	}

	info := TokenInfo{JWT: true}
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if role, ok := claims["role"].(string); ok {
		info.Role = role
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		info.IssuedAt = &t
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		info.ExpiresAt = &t
	}
	return info
}

// ExpiredAt reports whether the token's exp claim is before t. Tokens
// without exp never report expired.
func (i TokenInfo) ExpiredAt(t time.Time) bool {
	return i.ExpiresAt != nil && i.ExpiresAt.Before(t)
}

// MaskToken hides all but the ends of a token for display.
func MaskToken(token string) string {
	const keep = 4
	if token == "" {
		return ""
	}
	if len(token) <= 3*keep {
		return strings.Repeat("*", len(token))
	}
	return token[:keep] + "..." + token[len(token)-keep:]
}
