package routes

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baladiya/citizen-portal/internal/rbac"
)

func TestIsPublicPage(t *testing.T) {
	c := Default()

	for _, p := range []string{"/etablissements", "/login", "/evenements", "/reclamations/suivi"} {
		assert.True(t, c.IsPublicPage(p), p)
		assert.True(t, c.IsPublicPage(p+"/123"), p+"/123")
		assert.True(t, c.IsPublicPage("/fr"+p), "/fr"+p)
		assert.True(t, c.IsPublicPage("/ar"+p+"/"), "/ar"+p+"/")
	}
	assert.False(t, c.IsPublicPage("/etablissements-privee"))
	assert.False(t, c.IsPublicPage("/loginx"))
	assert.False(t, c.IsPublicPage("/reclamations"))
	assert.False(t, c.IsPublicPage("/dashboard"))

	assert.True(t, c.IsPublicPage("/"))
	assert.True(t, c.IsPublicPage("/fr"))
	assert.True(t, c.IsPublicPage("/ar/"))
}

func TestAPIFamilies(t *testing.T) {
	c := Default()

	assert.True(t, c.IsAlwaysPublicAPI("/api/auth/login"))
	assert.True(t, c.IsAlwaysPublicAPI("/api/license-check"))
	assert.False(t, c.IsAlwaysPublicAPI("/api/authz"))

	assert.True(t, c.IsPublicReadAPI("/api/etablissements"))
	assert.True(t, c.IsPublicReadAPI("/api/etablissements/42"))
	assert.True(t, c.IsPublicReadAPI("/api/reclamations/suivi/ABC123"))
	assert.False(t, c.IsPublicReadAPI("/api/reclamations"))

	assert.True(t, c.IsMobileAPI("/api/mobile/auth/login"))
	assert.True(t, c.IsAlwaysProtectedAPI("/api/users/7"))
	assert.True(t, c.IsAlwaysProtectedAPI("/api/reclamations"))
	assert.False(t, c.IsAlwaysProtectedAPI("/api/usersettings"))
}

func TestRoleTablesLongestPrefixWins(t *testing.T) {
	c := Default()

	roles, ok := c.PageRoles("/fr/dashboard/super-admin/users")
	require.True(t, ok)
	assert.Equal(t, "SUPER_ADMIN", roles.String())

	roles, ok = c.PageRoles("/admin/")
	require.True(t, ok)
	assert.Equal(t, "ADMIN, SUPER_ADMIN", roles.String())

	_, ok = c.PageRoles("/profil")
	assert.False(t, ok)

	roles, ok = c.MutationRoles("/api/etablissements/9")
	require.True(t, ok)
	assert.True(t, roles.Contains(rbac.RoleAdmin))
	assert.False(t, roles.Contains(rbac.RoleCitoyen))

	_, ok = c.MutationRoles("/api/reclamations/suivi")
	assert.False(t, ok)
}

func TestTableLongestMatch(t *testing.T) {
	tbl := NewTable(
		Rule{Prefix: "/a", Roles: rbac.NewRoleSet(rbac.RoleCitoyen)},
		Rule{Prefix: "/a/b/", Roles: rbac.NewRoleSet(rbac.RoleAdmin)},
	)
	rule, ok := tbl.Match("/a/b/c")
	require.True(t, ok)
	assert.Equal(t, "/a/b", rule.Prefix)

	rule, ok = tbl.Match("/a/bc")
	require.True(t, ok)
	assert.Equal(t, "/a", rule.Prefix)

	_, ok = tbl.Match("/ab")
	assert.False(t, ok)
	assert.Equal(t, 2, tbl.Len())

	var empty *Table
	assert.False(t, empty.Contains("/a"))
}

func TestClassify(t *testing.T) {
	c := Default()
	cases := []struct {
		path   string
		method string
		want   Category
	}{
		{"/api/auth/session", http.MethodGet, CategoryPublicAPI},
		{"/api/license-check", http.MethodPost, CategoryPublicAPI},
		{"/api/mobile/events", http.MethodPost, CategoryMobileAPI},
		{"/api/etablissements", http.MethodGet, CategoryPublicReadAPI},
		{"/api/etablissements", http.MethodHead, CategoryPublicReadAPI},
		{"/api/etablissements", http.MethodPost, CategoryMutationAPI},
		{"/api/etablissements/3", http.MethodDelete, CategoryMutationAPI},
		{"/api/reclamations/suivi/XY", http.MethodGet, CategoryPublicReadAPI},
		{"/api/reclamations/suivi/XY", http.MethodPost, CategoryProtectedAPI},
		{"/api/users", http.MethodGet, CategoryProtectedAPI},
		{"/api/notifications", http.MethodGet, CategoryAuthenticatedAPI},
		{"/api", http.MethodGet, CategoryAuthenticatedAPI},
		{"/fr/etablissements/1", http.MethodGet, CategoryPublicPage},
		{"/ar/dashboard", http.MethodGet, CategoryProtectedPage},
		{"/something-new", http.MethodGet, CategoryProtectedPage},
	}
	for _, tc := range cases {
		got := c.Classify(tc.path, tc.method)
		assert.Equal(t, tc.want, got, "%s %s", tc.method, tc.path)
		assert.Equal(t, got, c.Classify(tc.path, tc.method), "classification must be stable")
		assert.Equal(t, got.IsAPI(), IsAPI(Normalize(tc.path)))
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/", Normalize(""))
	assert.Equal(t, "/", Normalize("/"))
	assert.Equal(t, "/x", Normalize("/x//"))
	assert.Equal(t, "public_read_api", CategoryPublicReadAPI.String())
}

func TestIsStaticAsset(t *testing.T) {
	for _, p := range []string{"/favicon.ico", "/fr/images/logo.png", "/_next/data/build/ar.json", "/_next", "/static/app"} {
		assert.True(t, IsStaticAsset(p), p)
	}
	for _, p := range []string{
		"/", "/ar/etablissements", "/_nextgen", "/api/users/jean.dupont", "/api/files/report.pdf",
		"/etablissements/../admin", "/v1.2/admin", "/fr/.hidden", "/_next/../admin", "/static/./app",
	} {
		assert.False(t, IsStaticAsset(p), p)
	}
}

func TestHasDotSegment(t *testing.T) {
	for _, p := range []string{"/api/etablissements/../users", "/./admin", "/a/..", `/api/etablissements/..\users`} {
		assert.True(t, HasDotSegment(p), p)
	}
	for _, p := range []string{"/", "/favicon.ico", "/..well-known", "/a/...", "/api/users/jean.dupont"} {
		assert.False(t, HasDotSegment(p), p)
	}
}
