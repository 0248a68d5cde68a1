package systemlog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/baladiya/citizen-portal/internal/platform/httpx"
	"github.com/baladiya/citizen-portal/internal/rbac"
)

// MaxPageSize caps the limit query parameter.
const MaxPageSize = 200

// HTTPHandler exposes the buffer under /api/logs.
type HTTPHandler struct {
	buf    *Buffer
	logger *slog.Logger
	rbac   rbac.Middleware
}

// NewHTTPHandler constructs an HTTPHandler.
func NewHTTPHandler(buf *Buffer, logger *slog.Logger, mw rbac.Middleware) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{buf: buf, logger: logger, rbac: mw}
}

// MountRoutes registers the log routes.
func (h *HTTPHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.RoleAdmin, rbac.RoleSuperAdmin))
		r.Get("/", h.list)
		r.Get("/stats", h.stats)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.RoleSuperAdmin))
		r.Delete("/", h.clear)
	})
}

func (h *HTTPHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f Filter
	if raw := q.Get("level"); raw != "" && raw != "all" {
		level, ok := ParseLevel(raw)
		if !ok {
			httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "Niveau de log invalide: "+raw)
			return
		}
		f.Level = level
	}
	if raw := q.Get("source"); raw != "all" {
		f.Source = raw
	}
	var err error
	if f.Limit, err = intParam(q.Get("limit"), DefaultPageSize); err != nil || f.Limit > MaxPageSize {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "Paramètre limit invalide")
		return
	}
	if f.Page, err = intParam(q.Get("page"), 1); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "Paramètre page invalide")
		return
	}
	httpx.OK(w, http.StatusOK, h.buf.Filtered(f))
}

func (h *HTTPHandler) stats(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, http.StatusOK, h.buf.Stats())
}

func (h *HTTPHandler) clear(w http.ResponseWriter, r *http.Request) {
	h.buf.Clear()
	actor := ""
	if p := rbac.PrincipalFromContext(r.Context()); p != nil {
		actor = p.Email
	}
	h.logger.Info("system logs cleared", slog.String(SourceKey, "systemlog"), slog.String("actor", actor))
	httpx.OK(w, http.StatusOK, nil)
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
