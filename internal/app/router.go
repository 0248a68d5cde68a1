package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baladiya/citizen-portal/internal/auth"
	"github.com/baladiya/citizen-portal/internal/gate"
	"github.com/baladiya/citizen-portal/internal/observability"
	"github.com/baladiya/citizen-portal/internal/platform/httpx"
	"github.com/baladiya/citizen-portal/internal/routes"
	"github.com/baladiya/citizen-portal/internal/systemlog"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Gate        *gate.Gate
	Headers     *gate.SecurityHeaders
	AuthHandler *auth.Handler
	LogsHandler *systemlog.HTTPHandler
	// Upstream receives every request no local route serves. Nil answers 404.
	Upstream http.Handler
	Metrics  *observability.Metrics
}

// NewRouter constructs the chi.Router with portal defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Headers: params.Headers,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	r.Use(gated(params.Gate))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.AuthHandler != nil {
		r.Route("/api/auth", params.AuthHandler.MountRoutes)
		r.Route("/api/mobile/auth", params.AuthHandler.MountMobileRoutes)
	}
	if params.LogsHandler != nil {
		r.Route("/api/logs", params.LogsHandler.MountRoutes)
	}

	fallback := params.Upstream
	if fallback == nil {
		fallback = http.HandlerFunc(notFound)
	}
	r.NotFound(fallback.ServeHTTP)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if params.Upstream != nil && !routes.IsAPI(r.URL.Path) {
			params.Upstream.ServeHTTP(w, r)
			return
		}
		httpx.Error(w, http.StatusMethodNotAllowed, httpx.CodeValidation, "Méthode non autorisée")
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	if routes.IsAPI(r.URL.Path) {
		httpx.Error(w, http.StatusNotFound, httpx.CodeNotFound, "Ressource introuvable")
		return
	}
	http.NotFound(w, r)
}
