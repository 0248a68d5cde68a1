package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/baladiya/citizen-portal/internal/auth"
	"github.com/baladiya/citizen-portal/internal/rbac"
	"github.com/baladiya/citizen-portal/internal/shared"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

type fixture struct {
	router   http.Handler
	sessions *shared.SessionManager
	tokens   *auth.JWTManager
	repo     *stubRepo
}

func newFixture(t *testing.T, user *auth.User) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	tokens, err := auth.NewJWTManager("jwt-secret", time.Hour, "portal-test")
	require.NoError(t, err)

	repo := &stubRepo{user: user}
	handler := auth.NewHandler(nil, auth.NewService(repo), sessions, tokens)
	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountRoutes)
	r.Route("/api/mobile/auth", handler.MountMobileRoutes)
	return fixture{router: r, sessions: sessions, tokens: tokens, repo: repo}
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env.Error.Code
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t, &auth.User{ID: 1, Email: "citoyen@test.ma", PasswordHash: hashed(t, "correctpass"), Role: rbac.RoleCitoyen, IsActive: true})

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, postJSON("/api/auth/login", `{"email":"citoyen@test.ma","password":"wrongpass"}`))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rr))
	assert.Empty(t, rr.Result().Cookies())
}

func TestLoginValidationError(t *testing.T) {
	f := newFixture(t, nil)

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, postJSON("/api/auth/login", `{"email":"not-an-email","password":"x"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rr))

	rr = httptest.NewRecorder()
	f.router.ServeHTTP(rr, postJSON("/api/auth/login", `{"email":`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newFixture(t, &auth.User{ID: 2, Email: "ancien@test.ma", PasswordHash: hashed(t, "correctpass"), Role: rbac.RoleDelegation})

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, postJSON("/api/auth/login", `{"email":"ancien@test.ma","password":"correctpass"}`))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "ACCOUNT_DEACTIVATED", errorCode(t, rr))
}

func TestLoginSessionAndLogout(t *testing.T) {
	f := newFixture(t, &auth.User{ID: 3, Email: "admin@test.ma", PasswordHash: hashed(t, "correctpass"), Role: rbac.RoleAdmin, IsActive: true})

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, postJSON("/api/auth/login", `{"email":"admin@test.ma","password":"correctpass"}`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Len(t, f.repo.sessions, 1)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(cookies[0])
	principal, err := auth.NewSessionProvider(f.sessions).Validate(req)
	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, rbac.RoleAdmin, principal.Role)
	assert.True(t, principal.IsActive)
	assert.Equal(t, auth.SourceSession, principal.Source)

	sessionRR := httptest.NewRecorder()
	f.router.ServeHTTP(sessionRR, req)
	assert.Equal(t, http.StatusOK, sessionRR.Code)
	assert.Contains(t, sessionRR.Body.String(), `"role":"ADMIN"`)

	logout := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	logout.AddCookie(cookies[0])
	logoutRR := httptest.NewRecorder()
	f.router.ServeHTTP(logoutRR, logout)
	assert.Equal(t, http.StatusOK, logoutRR.Code)
	assert.Empty(t, f.repo.sessions)

	after := httptest.NewRecorder()
	f.router.ServeHTTP(after, req)
	assert.Equal(t, http.StatusUnauthorized, after.Code)
}

func TestMobileLoginIssuesBearerToken(t *testing.T) {
	f := newFixture(t, &auth.User{ID: 4, Email: "coord@test.ma", PasswordHash: hashed(t, "correctpass"), Role: rbac.RoleCoordinateurActivites, IsActive: true})

	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, postJSON("/api/mobile/auth/login", `{"email":"coord@test.ma","password":"correctpass"}`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.NotEmpty(t, body.Data.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/mobile/events", nil)
	req.Header.Set("Authorization", "Bearer "+body.Data.Token)
	principal, err := auth.NewBearerProvider(f.tokens).Validate(req)
	require.NoError(t, err)
	require.NotNil(t, principal)
	assert.Equal(t, int64(4), principal.UserID)
	assert.Equal(t, rbac.RoleCoordinateurActivites, principal.Role)
	assert.Equal(t, auth.SourceJWT, principal.Source)
}
