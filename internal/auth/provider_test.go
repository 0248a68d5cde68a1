package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baladiya/citizen-portal/internal/rbac"
)

func TestJWTManagerRejectsExpiredAndForeignTokens(t *testing.T) {
	issuedAt := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	m, err := NewJWTManager("s3cret", time.Hour, "portal")
	require.NoError(t, err)
	m.now = func() time.Time { return issuedAt }

	token, expiresAt, err := m.Issue(&User{ID: 9, Email: "g@test.ma", Role: rbac.RoleGouverneur, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(time.Hour), expiresAt)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	p, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleGouverneur, p.Role)

	m.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = m.Parse(token)
	assert.Error(t, err)

	other, err := NewJWTManager("other-secret", time.Hour, "portal")
	require.NoError(t, err)
	other.now = func() time.Time { return issuedAt }
	_, err = other.Parse(token)
	assert.Error(t, err)

	_, err = NewJWTManager("", time.Hour, "")
	assert.Error(t, err)
}

func TestBearerProviderIgnoresMalformedHeaders(t *testing.T) {
	m, err := NewJWTManager("s3cret", time.Hour, "portal")
	require.NoError(t, err)
	p := NewBearerProvider(m)

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer    ", "Bearer not.a.jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/api/mobile/x", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		principal, err := p.Validate(req)
		assert.NoError(t, err, header)
		assert.Nil(t, principal, header)
	}
}

func TestChainReturnsFirstPrincipal(t *testing.T) {
	boom := errors.New("redis down")
	failing := TokenProviderFunc(func(*http.Request) (*rbac.Principal, error) { return nil, boom })
	empty := TokenProviderFunc(func(*http.Request) (*rbac.Principal, error) { return nil, nil })
	found := TokenProviderFunc(func(*http.Request) (*rbac.Principal, error) {
		return &rbac.Principal{UserID: 1, Role: rbac.RoleCitoyen, IsActive: true}, nil
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	p, err := Chain{failing, empty, found}.Validate(req)
	require.NoError(t, err)
	require.NotNil(t, p)

	p, err = Chain{empty, failing}.Validate(req)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, p)

	p, err = Chain{nil, empty}.Validate(req)
	assert.NoError(t, err)
	assert.Nil(t, p)
}
