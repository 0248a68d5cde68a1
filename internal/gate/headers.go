package gate

import (
	"log/slog"
	"net/http"

	"github.com/unrolled/secure"

	"github.com/baladiya/citizen-portal/internal/platform/httpx"
)

// strippedHeaders are removed from every response before it is written.
var strippedHeaders = []string{"X-Powered-By", "Server"}

// SecurityHeaders appends hardening headers to every response and strips
// headers that fingerprint the stack.
type SecurityHeaders struct {
	secure *secure.Secure
	logger *slog.Logger
}

// NewSecurityHeaders configures the header injector. HSTS and the HTTPS
// redirect only apply in production.
func NewSecurityHeaders(production bool, logger *slog.Logger) *SecurityHeaders {
	if logger == nil {
		logger = slog.Default()
	}
	opts := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	}
	if production {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
	}
	return &SecurityHeaders{secure: secure.New(opts), logger: logger}
}

// Handler wraps next with the header injector.
func (s *SecurityHeaders) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.secure.Process(w, r); err != nil {
			s.logger.Warn("secure headers blocked request", slog.Any("error", err))
			httpx.Error(w, http.StatusBadRequest, httpx.CodeAccessDenied, "Requête refusée")
			return
		}
		next.ServeHTTP(&strippingWriter{ResponseWriter: w}, r)
	})
}

type strippingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *strippingWriter) strip() {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	h := w.Header()
	for _, name := range strippedHeaders {
		h.Del(name)
	}
}

func (w *strippingWriter) WriteHeader(code int) {
	w.strip()
	w.ResponseWriter.WriteHeader(code)
}

func (w *strippingWriter) Write(b []byte) (int, error) {
	w.strip()
	return w.ResponseWriter.Write(b)
}

// Flush forwards Flush to the underlying ResponseWriter if it supports http.Flusher.
func (w *strippingWriter) Flush() {
	w.strip()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *strippingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
