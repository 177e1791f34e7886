// Package session issues and verifies the signed tokens that identify a
// caller. A verified token becomes a core.Session.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dailymeow/internal/core"
)

const issuer = "dailymeow"

type claims struct {
	Timezone string `json:"tz,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs HS256 tokens with a shared secret.
type Manager struct {
	secret     []byte
	ttl        time.Duration
	defaultLoc *time.Location
	now        func() time.Time
}

func NewManager(secret string, ttl time.Duration, defaultLoc *time.Location) *Manager {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &Manager{
		secret:     []byte(secret),
		ttl:        ttl,
		defaultLoc: defaultLoc,
		now:        time.Now,
	}
}

// Issue returns a token for p and its expiry.
func (m *Manager) Issue(p core.Profile) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Timezone: p.Timezone,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies a token and resolves the session timezone.
// Any failure is reported as core.ErrNotAuthenticated.
func (m *Manager) Parse(tokenString string) (core.Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return core.Session{}, errors.Join(core.ErrNotAuthenticated, err)
	}
	if c.Subject == "" {
		return core.Session{}, core.ErrNotAuthenticated
	}
	profile := core.Profile{Timezone: c.Timezone}
	return core.Session{UserID: c.Subject, Location: profile.Location(m.defaultLoc)}, nil
}
