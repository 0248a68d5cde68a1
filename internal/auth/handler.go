package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/baladiya/citizen-portal/internal/platform/httpx"
	"github.com/baladiya/citizen-portal/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	sessions       *SessionProvider
	tokens         *JWTManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, tokens *JWTManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		sessions:       NewSessionProvider(sessions),
		tokens:         tokens,
		validator:      validator.New(),
	}
}

// MountRoutes registers the cookie-session routes under /api/auth.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
}

// MountMobileRoutes registers the bearer-token routes under /api/mobile/auth.
func (h *Handler) MountMobileRoutes(r chi.Router) {
	r.Post("/login", h.handleMobileLogin)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) decodeLogin(w http.ResponseWriter, r *http.Request) (*User, bool) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, "Corps de requête invalide")
		return nil, false
	}
	if err := h.validator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		message := "Email ou mot de passe invalide"
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			message = fieldErrs[0].Field() + ": " + fieldErrs[0].Tag()
		}
		httpx.Error(w, http.StatusBadRequest, httpx.CodeValidation, message)
		return nil, false
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, shared.ErrAccountDeactivated):
		h.logger.Warn("login on deactivated account", slog.String("email", req.Email))
		httpx.Error(w, http.StatusForbidden, httpx.CodeAccountDeactivated, "Compte désactivé")
		return nil, false
	case err != nil:
		h.logger.Info("login failed", slog.String("email", req.Email), slog.String("ip", r.RemoteAddr))
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeInvalidCredentials, "Email ou mot de passe incorrect")
		return nil, false
	}
	return user, true
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}

	sess, err := h.sessionManager.Load(r.Context(), r)
	if err != nil {
		h.logger.Error("load session", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, http.StatusText(http.StatusInternalServerError))
		return
	}
	if err := h.sessionManager.Renew(r.Context(), sess); err != nil {
		h.logger.Warn("renew session", slog.Any("error", err))
	}
	sess.SetUser(user.ID, user.Email, user.Role, user.IsActive)
	if err := h.sessionManager.Commit(r.Context(), w, sess); err != nil {
		h.logger.Error("commit session", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, http.StatusText(http.StatusInternalServerError))
		return
	}

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.logger.Info("login succeeded", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
	httpx.OK(w, http.StatusOK, map[string]any{"user": viewOf(user.Principal(SourceSession), user.FullName)})
}

func (h *Handler) handleMobileLogin(w http.ResponseWriter, r *http.Request) {
	user, ok := h.decodeLogin(w, r)
	if !ok {
		return
	}
	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("issue mobile token", slog.Any("error", err))
		httpx.Error(w, http.StatusInternalServerError, httpx.CodeInternal, http.StatusText(http.StatusInternalServerError))
		return
	}
	h.logger.Info("mobile login succeeded", slog.Int64("user_id", user.ID))
	httpx.OK(w, http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": expiresAt.UTC().Format(time.RFC3339),
		"user":      viewOf(user.Principal(SourceJWT), user.FullName),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.sessionManager.CookieName())
	if err == nil && cookie.Value != "" {
		sess, err := h.sessionManager.Lookup(r.Context(), cookie.Value)
		if err == nil {
			if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
				h.logger.Warn("remove session", slog.Any("error", err))
			}
			h.sessionManager.Destroy(sess)
			if err := h.sessionManager.Commit(r.Context(), w, sess); err != nil {
				h.logger.Warn("destroy session", slog.Any("error", err))
			}
		}
	}
	httpx.OK(w, http.StatusOK, nil)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	principal, err := h.sessions.Validate(r)
	if err != nil {
		h.logger.Warn("session lookup", slog.Any("error", err))
	}
	if principal == nil {
		httpx.Error(w, http.StatusUnauthorized, httpx.CodeAuthenticationRequired, "Authentification requise")
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"user": viewOf(principal, "")})
}
