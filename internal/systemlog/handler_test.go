package systemlog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baladiya/citizen-portal/internal/rbac"
)

func TestHandlerCopiesRecords(t *testing.T) {
	buf := NewBuffer(10)
	logger := slog.New(NewHandler(buf, slog.LevelInfo))

	logger.Debug("dropped")
	logger.With(slog.String(SourceKey, "gate")).Warn("access denied",
		slog.String("path", "/api/users"),
		slog.Any("error", errors.New("no token")))
	logger.WithGroup("req").Error("upstream failed", slog.Int("status", 502))

	all := buf.All()
	require.Len(t, all, 2)

	assert.Equal(t, LevelError, all[0].Level)
	assert.Equal(t, "app", all[0].Source)
	assert.Equal(t, int64(502), all[0].Details["req.status"])

	assert.Equal(t, LevelWarning, all[1].Level)
	assert.Equal(t, "gate", all[1].Source)
	assert.Equal(t, "access denied", all[1].Message)
	assert.Equal(t, "/api/users", all[1].Details["path"])
	assert.Equal(t, "no token", all[1].Details["error"])
}

func newLogsRouter(buf *Buffer) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/logs", NewHTTPHandler(buf, nil, rbac.Middleware{}).MountRoutes)
	return r
}

func asRole(req *http.Request, role rbac.Role) *http.Request {
	return req.WithContext(rbac.ContextWithPrincipal(req.Context(), &rbac.Principal{UserID: 1, Role: role, IsActive: true}))
}

func TestHTTPHandlerListAndStats(t *testing.T) {
	buf := NewBuffer(10)
	buf.Info("gate", "one", nil)
	buf.Error("auth", "two", nil)
	buf.Error("gate", "three", nil)
	router := newLogsRouter(buf)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/api/logs?level=error&source=gate", nil), rbac.RoleAdmin))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var listed struct {
		Success bool `json:"success"`
		Data    Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listed))
	assert.True(t, listed.Success)
	require.Len(t, listed.Data.Entries, 1)
	assert.Equal(t, "three", listed.Data.Entries[0].Message)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/api/logs/stats", nil), rbac.RoleSuperAdmin))
	require.Equal(t, http.StatusOK, rr.Code)
	var stats struct {
		Data Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, Stats{Total: 3, Info: 1, Error: 2}, stats.Data)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/api/logs?level=fatal", nil), rbac.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/api/logs?limit=1000", nil), rbac.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHTTPHandlerEnforcesRoles(t *testing.T) {
	buf := NewBuffer(10)
	buf.Info("gate", "one", nil)
	router := newLogsRouter(buf)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/api/logs", nil), rbac.RoleCitoyen))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodDelete, "/api/logs", nil), rbac.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 1, buf.Len())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodDelete, "/api/logs", nil), rbac.RoleSuperAdmin))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, buf.Len())
}
