package rbac

import (
	"log/slog"
	"net/http"

	"github.com/baladiya/citizen-portal/internal/platform/httpx"
)

// Middleware wires role checks for API handlers sitting behind the gate.
// The gate only enforces coarse route-level rules; handlers narrow further.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current principal holds one of the given roles.
func (m Middleware) RequireAny(roles ...Role) func(http.Handler) http.Handler {
	allowed := NewRoleSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed.Empty() {
				next.ServeHTTP(w, r)
				return
			}
			p := PrincipalFromContext(r.Context())
			if p == nil {
				httpx.Error(w, http.StatusUnauthorized, httpx.CodeAuthenticationRequired, "Authentification requise")
				return
			}
			if !p.IsActive {
				httpx.Error(w, http.StatusForbidden, httpx.CodeAccountDeactivated, "Compte désactivé")
				return
			}
			if p.HasAnyRole(allowed) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn("rbac require any denied",
					slog.String("path", r.URL.Path),
					slog.String("role", string(p.Role)))
			}
			httpx.Error(w, http.StatusForbidden, httpx.CodeAccessDenied, "Accès refusé. Rôles autorisés: "+allowed.String())
		})
	}
}
