package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baladiya/citizen-portal/internal/app"
	"github.com/baladiya/citizen-portal/internal/auth"
	"github.com/baladiya/citizen-portal/internal/gate"
	"github.com/baladiya/citizen-portal/internal/locale"
	"github.com/baladiya/citizen-portal/internal/observability"
	"github.com/baladiya/citizen-portal/internal/platform/cache"
	"github.com/baladiya/citizen-portal/internal/platform/db"
	"github.com/baladiya/citizen-portal/internal/ratelimit"
	"github.com/baladiya/citizen-portal/internal/rbac"
	"github.com/baladiya/citizen-portal/internal/routes"
	"github.com/baladiya/citizen-portal/internal/shared"
	"github.com/baladiya/citizen-portal/internal/systemlog"
	"github.com/baladiya/citizen-portal/internal/upstream"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logs := systemlog.NewBuffer(cfg.LogBufferCapacity)
	logger := app.NewLogger(cfg, logs)
	slog.SetDefault(logger)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	tokens, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	if err != nil {
		logger.Error("jwt manager", slog.Any("error", err))
		os.Exit(1)
	}

	var store ratelimit.Store
	switch cfg.RateLimitStore {
	case app.StoreRedis:
		store = ratelimit.NewRedisStore(redisClient, "portal:ratelimit:")
	default:
		mem := ratelimit.NewMemoryStore()
		go mem.Run(ctx, cfg.RateLimitWindow, logger)
		store = mem
	}
	limiter, err := ratelimit.New(store, cfg.RateLimit())
	if err != nil {
		logger.Error("rate limiter", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	sessionProvider := auth.NewSessionProvider(sessionManager)
	portalGate, err := gate.New(gate.Config{
		Classifier: routes.Default(),
		Limiter:    limiter,
		Tokens:     auth.Chain{sessionProvider, auth.NewBearerProvider(tokens)},
		Locales:    locale.NewResolver(cfg.Locale()),
		Logger:     logger,
		Recorder:   metrics,
	})
	if err != nil {
		logger.Error("gate", slog.Any("error", err))
		os.Exit(1)
	}

	var proxy http.Handler
	if cfg.UpstreamURL != "" {
		p, err := upstream.New(cfg.UpstreamURL, logger)
		if err != nil {
			logger.Error("upstream", slog.Any("error", err))
			os.Exit(1)
		}
		proxy = p
	} else {
		logger.Warn("UPSTREAM_URL not set, unserved routes answer 404")
	}

	authService := auth.NewService(auth.NewRepository(dbpool))
	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		Gate:        portalGate,
		Headers:     gate.NewSecurityHeaders(cfg.IsProduction(), logger),
		AuthHandler: auth.NewHandler(logger, authService, sessionManager, tokens),
		LogsHandler: systemlog.NewHTTPHandler(logs, logger, rbac.Middleware{Logger: logger}),
		Upstream:    proxy,
		Metrics:     metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("rate_limit_store", cfg.RateLimitStore),
			slog.String("default_locale", cfg.DefaultLocale))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
