package gate

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/baladiya/citizen-portal/internal/platform/httpx"
	"github.com/baladiya/citizen-portal/internal/routes"
)

// CanonicalPath must run ahead of the gate. Paths with dot segments, raw or
// percent-encoded, are rejected with 400; repeated slashes are collapsed so
// classification and the upstream see the same path.
func CanonicalPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if routes.HasDotSegment(p) || routes.HasDotSegment(r.URL.RawPath) {
			httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "Chemin de requête invalide.")
			return
		}
		clean := cleanPath(p)
		if clean == p {
			next.ServeHTTP(w, r)
			return
		}
		r2 := new(http.Request)
		*r2 = *r
		r2.URL = new(url.URL)
		*r2.URL = *r.URL
		r2.URL.Path = clean
		r2.URL.RawPath = ""
		next.ServeHTTP(w, r2)
	})
}

// cleanPath collapses repeated slashes and keeps a trailing slash.
func cleanPath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return p
	}
	clean := path.Clean(p)
	if clean != "/" && strings.HasSuffix(p, "/") {
		clean += "/"
	}
	return clean
}
