// Package routes classifies request paths for the gate: public pages, the
// API route families, and the two RBAC tables (pages, API mutations).
package routes

import (
	"net/http"
	"strings"

	"github.com/baladiya/citizen-portal/internal/locale"
	"github.com/baladiya/citizen-portal/internal/rbac"
)

// Category is the single classification of a request.
type Category int

// Categories in gate decision order.
const (
	CategoryPublicAPI Category = iota
	CategoryMobileAPI
	CategoryPublicReadAPI
	CategoryProtectedAPI
	CategoryMutationAPI
	// CategoryAuthenticatedAPI is the fallback for API paths no table covers.
	CategoryAuthenticatedAPI
	CategoryPublicPage
	// CategoryProtectedPage is the fallback for pages no table covers.
	CategoryProtectedPage
)

var categoryNames = [...]string{
	CategoryPublicAPI:        "public_api",
	CategoryMobileAPI:        "mobile_api",
	CategoryPublicReadAPI:    "public_read_api",
	CategoryProtectedAPI:     "protected_api",
	CategoryMutationAPI:      "mutation_api",
	CategoryAuthenticatedAPI: "authenticated_api",
	CategoryPublicPage:       "public_page",
	CategoryProtectedPage:    "protected_page",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// IsAPI reports whether the category belongs to the /api tree.
func (c Category) IsAPI() bool {
	return c <= CategoryAuthenticatedAPI
}

// Tables groups the static route tables. Built once at start-up.
type Tables struct {
	PublicPages        *Table
	AlwaysPublicAPI    *Table
	PublicReadAPI      *Table
	MobileAPI          *Table
	AlwaysProtectedAPI *Table
	PageRoles          *Table
	MutationRoles      *Table
}

// Classifier answers classification questions against immutable tables.
type Classifier struct {
	t Tables
}

// NewClassifier returns a Classifier over the given tables.
func NewClassifier(t Tables) *Classifier {
	return &Classifier{t: t}
}

// Default returns the classifier with the portal's compiled-in tables.
func Default() *Classifier {
	return NewClassifier(DefaultTables())
}

// IsAPI reports whether path is under /api.
func IsAPI(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// internalPrefixes hold framework assets that never pass through the gate.
var internalPrefixes = []string{"/_next", "/static"}

// IsStaticAsset reports whether path bypasses the gate entirely: a non-API
// path whose last segment carries a file extension, or anything under an
// internal asset prefix. API paths and paths with dot segments are always
// gated.
func IsStaticAsset(path string) bool {
	if IsAPI(path) || HasDotSegment(path) {
		return false
	}
	last := path[strings.LastIndexByte(path, '/')+1:]
	if strings.LastIndexByte(last, '.') > 0 {
		return true
	}
	for _, p := range internalPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// IsReadMethod reports whether method is GET, HEAD or OPTIONS.
func IsReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// IsPublicPage reports whether path, stripped of its locale, is a public page.
func (c *Classifier) IsPublicPage(path string) bool {
	return c.t.PublicPages.Contains(locale.StripLocale(Normalize(path)))
}

// IsAlwaysPublicAPI reports whether path is never gated.
func (c *Classifier) IsAlwaysPublicAPI(path string) bool {
	return c.t.AlwaysPublicAPI.Contains(path)
}

// IsPublicReadAPI reports whether path serves public data on read methods.
func (c *Classifier) IsPublicReadAPI(path string) bool {
	return c.t.PublicReadAPI.Contains(path)
}

// IsMobileAPI reports whether path belongs to the mobile API.
func (c *Classifier) IsMobileAPI(path string) bool {
	return c.t.MobileAPI.Contains(path)
}

// IsAlwaysProtectedAPI reports whether path requires authentication on every method.
func (c *Classifier) IsAlwaysProtectedAPI(path string) bool {
	return c.t.AlwaysProtectedAPI.Contains(path)
}

// PageRoles returns the roles allowed on a page; false when no rule applies.
func (c *Classifier) PageRoles(path string) (rbac.RoleSet, bool) {
	rule, ok := c.t.PageRoles.Match(locale.StripLocale(Normalize(path)))
	return rule.Roles, ok
}

// MutationRoles returns the roles allowed to mutate an API path; false when no rule applies.
func (c *Classifier) MutationRoles(path string) (rbac.RoleSet, bool) {
	rule, ok := c.t.MutationRoles.Match(path)
	return rule.Roles, ok
}

// Classify maps a request onto exactly one category, in gate decision order.
// Paths no table covers land on the named protected fallbacks.
func (c *Classifier) Classify(path, method string) Category {
	path = Normalize(path)
	if IsAPI(path) {
		switch {
		case c.IsAlwaysPublicAPI(path):
			return CategoryPublicAPI
		case c.IsMobileAPI(path):
			return CategoryMobileAPI
		case c.IsPublicReadAPI(path) && IsReadMethod(method):
			return CategoryPublicReadAPI
		case c.IsAlwaysProtectedAPI(path):
			return CategoryProtectedAPI
		case c.IsPublicReadAPI(path):
			return CategoryMutationAPI
		default:
			return CategoryAuthenticatedAPI
		}
	}
	if c.IsPublicPage(path) {
		return CategoryPublicPage
	}
	return CategoryProtectedPage
}
