// Package upstream forwards gated requests to the page renderer and CRUD
// backend.
package upstream

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"

	"github.com/baladiya/citizen-portal/internal/platform/httpx"
	"github.com/baladiya/citizen-portal/internal/rbac"
	"github.com/baladiya/citizen-portal/internal/routes"
)

// Headers forwarded to the backend describing the authorized principal.
// Incoming values are always discarded.
const (
	HeaderUserID = "X-Portal-User-Id"
	HeaderRole   = "X-Portal-User-Role"
)

// New returns a reverse proxy to target. Responses have fingerprinting
// headers removed and backend failures are reported in the portal's error
// format.
func New(target string, logger *slog.Logger) (*httputil.ReverseProxy, error) {
	if target == "" {
		return nil, errors.New("upstream: target url required")
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("upstream: parse target: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream: target %q must be absolute", target)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "upstream"))

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
			pr.Out.Header.Del(HeaderUserID)
			pr.Out.Header.Del(HeaderRole)
			if p := rbac.PrincipalFromContext(pr.In.Context()); p != nil {
				pr.Out.Header.Set(HeaderUserID, strconv.FormatInt(p.UserID, 10))
				pr.Out.Header.Set(HeaderRole, string(p.Role))
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Del("X-Powered-By")
			resp.Header.Del("Server")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("upstream request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("error", err))
			if routes.IsAPI(r.URL.Path) {
				httpx.Error(w, http.StatusBadGateway, httpx.CodeInternal, "Service indisponible")
				return
			}
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		},
	}, nil
}
