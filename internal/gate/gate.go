// Package gate implements the request gatekeeper that sits in front of every
// page and API route: classification, rate limiting, authentication and
// coarse role checks.
package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/baladiya/citizen-portal/internal/locale"
	"github.com/baladiya/citizen-portal/internal/platform/httpx"
	"github.com/baladiya/citizen-portal/internal/ratelimit"
	"github.com/baladiya/citizen-portal/internal/rbac"
	"github.com/baladiya/citizen-portal/internal/routes"
)

// Response headers set by the gate.
const (
	HeaderPublicAPI          = "X-Public-API"
	HeaderMobileAPI          = "X-Mobile-API"
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	PublicCacheControl       = "public, max-age=60, stale-while-revalidate=300"
)

// DefaultLoginPaths are the credential endpoints charged against the login bucket.
var DefaultLoginPaths = []string{"/api/auth/login", "/api/mobile/auth/login"}

// TokenProvider validates request credentials. It returns (nil, nil) when the
// request carries no usable credentials.
type TokenProvider interface {
	Validate(r *http.Request) (*rbac.Principal, error)
}

// Recorder receives decision telemetry.
type Recorder interface {
	ObserveDecision(category, outcome string)
	ObserveRateLimited(bucket string)
}

// Outcome is the terminal state of a gate decision.
type Outcome int

const (
	OutcomeDeny Outcome = iota
	OutcomePassPage
	OutcomePassAPI
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassPage:
		return "pass_page"
	case OutcomePassAPI:
		return "pass_api"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "deny"
	}
}

// Decision is the result of evaluating one request.
type Decision struct {
	Outcome  Outcome
	Category routes.Category

	// Deny
	Status  int
	Code    string
	Message string

	// Redirect
	Location string

	Principal *rbac.Principal
	Bucket    ratelimit.Bucket
	RateLimit *ratelimit.Result

	PublicAPI bool
	MobileAPI bool
}

// Label is the metrics label of the decision, e.g. "deny_401".
func (d Decision) Label() string {
	if d.Outcome == OutcomeDeny {
		return fmt.Sprintf("deny_%d", d.Status)
	}
	return d.Outcome.String()
}

// Config wires the gate's collaborators.
type Config struct {
	Classifier *routes.Classifier
	Limiter    *ratelimit.Limiter
	Tokens     TokenProvider
	Locales    *locale.Resolver
	Logger     *slog.Logger
	Recorder   Recorder
	// LoginPaths defaults to DefaultLoginPaths.
	LoginPaths []string
}

// Gate evaluates every request against the route tables.
type Gate struct {
	classifier *routes.Classifier
	limiter    *ratelimit.Limiter
	tokens     TokenProvider
	locales    *locale.Resolver
	logger     *slog.Logger
	recorder   Recorder
	loginPaths *routes.Table
	now        func() time.Time
}

// New validates cfg and builds a Gate.
func New(cfg Config) (*Gate, error) {
	if cfg.Limiter == nil {
		return nil, errors.New("gate: limiter required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("gate: token provider required")
	}
	if cfg.Classifier == nil {
		cfg.Classifier = routes.Default()
	}
	if cfg.Locales == nil {
		cfg.Locales = locale.NewResolver(locale.Default)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LoginPaths == nil {
		cfg.LoginPaths = DefaultLoginPaths
	}
	return &Gate{
		classifier: cfg.Classifier,
		limiter:    cfg.Limiter,
		tokens:     cfg.Tokens,
		locales:    cfg.Locales,
		logger:     cfg.Logger.With(slog.String("component", "gate")),
		recorder:   cfg.Recorder,
		loginPaths: routes.NewPrefixList(cfg.LoginPaths...),
		now:        time.Now,
	}, nil
}

// request carries per-request state through Evaluate. The principal is
// resolved at most once and never re-read.
type request struct {
	r         *http.Request
	path      string
	ip        string
	principal *rbac.Principal
	resolved  bool
}

func (g *Gate) principal(req *request) *rbac.Principal {
	if req.resolved {
		return req.principal
	}
	req.resolved = true
	p, err := g.tokens.Validate(req.r)
	if err != nil {
		g.logger.Warn("token validation failed", slog.String("path", req.path), slog.Any("error", err))
		return nil
	}
	req.principal = p
	return p
}

// Evaluate decides the fate of r without writing a response.
func (g *Gate) Evaluate(r *http.Request) Decision {
	req := &request{r: r, path: routes.Normalize(r.URL.Path), ip: ClientIP(r)}
	cat := g.classifier.Classify(req.path, r.Method)
	d := Decision{Category: cat}

	if routes.HasDotSegment(r.URL.Path) {
		g.deny(&d, http.StatusBadRequest, httpx.CodeValidation, "Chemin de requête invalide.")
		return d
	}

	if r.Method == http.MethodPost && g.loginPaths.Contains(req.path) {
		if !g.consume(req, &d, ratelimit.BucketLogin) {
			return d
		}
	}

	switch cat {
	case routes.CategoryPublicAPI:
		d.Outcome = OutcomePassAPI
		return d
	case routes.CategoryPublicPage:
		d.Outcome = OutcomePassPage
		return d
	case routes.CategoryMobileAPI:
		if !g.consume(req, &d, ratelimit.BucketAuthenticated) {
			return d
		}
		d.Outcome = OutcomePassAPI
		d.MobileAPI = true
		d.Principal = g.principal(req)
		return d
	}

	bucket := ratelimit.BucketAuthenticated
	if cat == routes.CategoryPublicReadAPI {
		bucket = ratelimit.BucketPublic
	}
	if !g.consume(req, &d, bucket) {
		return d
	}

	switch cat {
	case routes.CategoryPublicReadAPI:
		d.Outcome = OutcomePassAPI
		d.PublicAPI = true
		return d
	case routes.CategoryProtectedAPI, routes.CategoryAuthenticatedAPI:
		g.requireActive(req, &d)
		return d
	case routes.CategoryMutationAPI:
		if !g.requireActive(req, &d) {
			return d
		}
		if allowed, ok := g.classifier.MutationRoles(req.path); ok && !d.Principal.HasAnyRole(allowed) {
			g.deny(&d, http.StatusForbidden, httpx.CodeAccessDenied, "Accès refusé. Rôles autorisés: "+allowed.String())
			g.logger.Info("mutation denied",
				slog.String("path", req.path),
				slog.String("method", r.Method),
				slog.String("role", string(d.Principal.Role)))
		}
		return d
	case routes.CategoryProtectedPage:
		g.authorizePage(req, &d)
		return d
	}

	// Unknown categories never pass.
	g.deny(&d, http.StatusUnauthorized, httpx.CodeAuthenticationRequired, "Authentification requise")
	return d
}

// consume charges one request to bucket. On rejection d becomes a 429 for
// APIs or an error-page redirect for pages. Store errors count as rejections.
func (g *Gate) consume(req *request, d *Decision, bucket ratelimit.Bucket) bool {
	d.Bucket = bucket
	res, err := g.limiter.Check(req.r.Context(), req.ip, bucket)
	if err != nil {
		g.logger.Error("rate limit check failed",
			slog.String("bucket", string(bucket)),
			slog.String("ip", req.ip),
			slog.Any("error", err))
		res = ratelimit.Result{Allowed: false, ResetAt: g.now().Add(g.limiter.Config().Window)}
	} else {
		d.RateLimit = &res
	}
	if res.Allowed {
		return true
	}
	if d.RateLimit == nil {
		d.RateLimit = &res
	}
	if g.recorder != nil {
		g.recorder.ObserveRateLimited(string(bucket))
	}
	g.logger.Warn("rate limit exceeded",
		slog.String("bucket", string(bucket)),
		slog.String("ip", req.ip),
		slog.String("path", req.path))
	if routes.IsAPI(req.path) {
		g.deny(d, http.StatusTooManyRequests, httpx.CodeRateLimitExceeded, "Trop de requêtes. Veuillez réessayer plus tard.")
		return false
	}
	d.Outcome = OutcomeRedirect
	d.Location = locale.Localize(g.pageLocale(req.r), "/error") + "?code=" + httpx.CodeRateLimitExceeded
	return false
}

// requireActive demands a valid token for an active account.
func (g *Gate) requireActive(req *request, d *Decision) bool {
	p := g.principal(req)
	if p == nil {
		g.deny(d, http.StatusUnauthorized, httpx.CodeAuthenticationRequired, "Authentification requise")
		return false
	}
	if !p.IsActive {
		g.deny(d, http.StatusForbidden, httpx.CodeAccountDeactivated, "Compte désactivé")
		return false
	}
	d.Principal = p
	d.Outcome = OutcomePassAPI
	return true
}

func (g *Gate) authorizePage(req *request, d *Decision) {
	loc := g.pageLocale(req.r)
	p := g.principal(req)
	if p == nil {
		callback := req.r.URL.Path
		if req.r.URL.RawQuery != "" {
			callback += "?" + req.r.URL.RawQuery
		}
		d.Outcome = OutcomeRedirect
		d.Location = locale.Localize(loc, "/login") + "?callbackUrl=" + url.QueryEscape(callback)
		return
	}
	if !p.IsActive {
		d.Outcome = OutcomeRedirect
		d.Location = locale.Localize(loc, "/account-deactivated")
		return
	}
	if allowed, ok := g.classifier.PageRoles(req.path); ok && !p.HasAnyRole(allowed) {
		g.logger.Info("page access denied",
			slog.String("path", req.path),
			slog.String("role", string(p.Role)))
		d.Outcome = OutcomeRedirect
		d.Location = locale.Localize(loc, "/access-denied")
		return
	}
	d.Principal = p
	d.Outcome = OutcomePassPage
}

func (g *Gate) pageLocale(r *http.Request) locale.Locale {
	return g.locales.Resolve(r)
}

func (g *Gate) deny(d *Decision, status int, code, message string) {
	d.Outcome = OutcomeDeny
	d.Status = status
	d.Code = code
	d.Message = message
}

// Middleware applies the gate. Pages that pass are routed through the locale
// resolver; APIs go straight to next. The principal, when known, is stored in
// the request context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	pages := g.locales.Handler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := g.Evaluate(r)
		if g.recorder != nil {
			g.recorder.ObserveDecision(d.Category.String(), d.Label())
		}

		h := w.Header()
		if d.RateLimit != nil && d.RateLimit.Limit > 0 {
			h.Set(HeaderRateLimitLimit, strconv.Itoa(d.RateLimit.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(d.RateLimit.Remaining))
		}

		switch d.Outcome {
		case OutcomeDeny:
			if d.Status == http.StatusTooManyRequests && d.RateLimit != nil {
				secs := int(d.RateLimit.RetryAfter(g.now()) / time.Second)
				h.Set("Retry-After", strconv.Itoa(secs))
			}
			httpx.Error(w, d.Status, d.Code, d.Message)
			return
		case OutcomeRedirect:
			http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
			return
		}

		if d.Principal != nil {
			r = r.WithContext(rbac.ContextWithPrincipal(r.Context(), d.Principal))
		}
		if d.Outcome == OutcomePassPage {
			pages.ServeHTTP(w, r)
			return
		}
		if d.PublicAPI {
			h.Set(HeaderPublicAPI, "true")
			if r.Method == http.MethodGet {
				h.Set("Cache-Control", PublicCacheControl)
			}
		}
		if d.MobileAPI {
			h.Set(HeaderMobileAPI, "true")
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the client address of r. RealIP upstream in the stack has
// already folded X-Forwarded-For / X-Real-IP into RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}
