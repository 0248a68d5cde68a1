package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/baladiya/citizen-portal/internal/gate"
	"github.com/baladiya/citizen-portal/internal/observability"
	"github.com/baladiya/citizen-portal/internal/platform/httpx"
	"github.com/baladiya/citizen-portal/internal/routes"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger  *slog.Logger
	Config  *Config
	Headers *gate.SecurityHeaders
	Metrics *observability.Metrics
}

// MiddlewareStack installs the portal middleware chain that runs ahead of
// the gate on every request.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	headers := cfg.Headers
	if headers == nil {
		headers = gate.NewSecurityHeaders(cfg.Config.IsProduction(), logger)
	}

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	middlewares := []func(http.Handler) http.Handler{
		middleware.RealIP,
		gate.RequestID,
		gate.CanonicalPath,
		middleware.Recoverer,
		requestLogger(logger),
		middleware.Timeout(timeout),
		headers.Handler,
		middleware.Compress(5),
	}
	if limit := globalLimit(cfg.Config); limit > 0 {
		window := time.Minute
		if cfg.Config.RateLimitWindow > 0 {
			window = cfg.Config.RateLimitWindow
		}
		middlewares = append(middlewares, httprate.Limit(limit, window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				logger.Warn("global flood guard tripped", slog.String("ip", gate.ClientIP(r)))
				httpx.Error(w, http.StatusTooManyRequests, httpx.CodeRateLimitExceeded, "Trop de requêtes. Veuillez réessayer plus tard.")
			}),
		))
	}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, cfg.Metrics.Middleware)
	}
	return middlewares
}

func globalLimit(cfg *Config) int {
	if cfg == nil {
		return 0
	}
	return cfg.GlobalRateLimit
}

// requestLogger emits one structured line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	logger = logger.With(slog.String("component", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if routes.IsStaticAsset(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", gate.RequestIDFromContext(r.Context())))
		})
	}
}

// gated applies the gate to everything except operational endpoints and
// static assets.
func gated(g *gate.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		protected := g.Middleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch path := r.URL.Path; {
			case path == "/healthz", path == "/metrics", routes.IsStaticAsset(path):
				next.ServeHTTP(w, r)
			default:
				protected.ServeHTTP(w, r)
			}
		})
	}
}
