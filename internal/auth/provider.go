package auth

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/baladiya/citizen-portal/internal/rbac"
	"github.com/baladiya/citizen-portal/internal/shared"
)

// Provider sources.
const (
	SourceSession = "session"
	SourceJWT     = "jwt"
)

// TokenProvider validates the credentials carried by a request.
// It returns (nil, nil) when the request carries no usable credentials.
type TokenProvider interface {
	Validate(r *http.Request) (*rbac.Principal, error)
}

// TokenProviderFunc adapts a function to TokenProvider.
type TokenProviderFunc func(r *http.Request) (*rbac.Principal, error)

// Validate calls f(r).
func (f TokenProviderFunc) Validate(r *http.Request) (*rbac.Principal, error) {
	return f(r)
}

// SessionProvider resolves principals from the Redis-backed session cookie.
// Concurrent lookups of the same session ID share one Redis round trip.
type SessionProvider struct {
	sessions *shared.SessionManager
	group    singleflight.Group
}

// NewSessionProvider constructs a SessionProvider.
func NewSessionProvider(sessions *shared.SessionManager) *SessionProvider {
	return &SessionProvider{sessions: sessions}
}

// Validate implements TokenProvider.
func (p *SessionProvider) Validate(r *http.Request) (*rbac.Principal, error) {
	cookie, err := r.Cookie(p.sessions.CookieName())
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	v, err, _ := p.group.Do(cookie.Value, func() (interface{}, error) {
		return p.sessions.Lookup(r.Context(), cookie.Value)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	sess := v.(*shared.Session)
	if !sess.Authenticated() || !sess.Role().Valid() {
		return nil, nil
	}
	return &rbac.Principal{
		UserID:   sess.User(),
		Email:    sess.Email(),
		Role:     sess.Role(),
		IsActive: sess.Active(),
		Source:   SourceSession,
	}, nil
}

// BearerProvider resolves principals from "Authorization: Bearer <jwt>".
type BearerProvider struct {
	tokens *JWTManager
}

// NewBearerProvider constructs a BearerProvider.
func NewBearerProvider(tokens *JWTManager) *BearerProvider {
	return &BearerProvider{tokens: tokens}
}

// Validate implements TokenProvider. Malformed or expired tokens yield no principal.
func (p *BearerProvider) Validate(r *http.Request) (*rbac.Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, nil
	}
	if p.tokens == nil {
		return nil, nil
	}
	claims, err := p.tokens.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, nil
	}
	principal, err := claims.Principal()
	if err != nil {
		return nil, nil
	}
	return principal, nil
}

// Chain tries providers in order and returns the first principal found.
// A provider error is reported only when no later provider succeeds.
type Chain []TokenProvider

// Validate implements TokenProvider.
func (c Chain) Validate(r *http.Request) (*rbac.Principal, error) {
	var firstErr error
	for _, p := range c {
		if p == nil {
			continue
		}
		principal, err := p.Validate(r)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if principal != nil {
			return principal, nil
		}
	}
	return nil, firstErr
}
