package locale

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
)

// CookieName carries an explicit locale preference chosen by the user.
const CookieName = "NEXT_LOCALE"

// Resolver negotiates locales for page requests.
type Resolver struct {
	fallback Locale
	matcher  language.Matcher
	locales  []Locale
}

// NewResolver builds a Resolver; fallback is used when nothing else matches.
func NewResolver(fallback Locale) *Resolver {
	if _, ok := Parse(string(fallback)); !ok {
		fallback = Default
	}
	ordered := []Locale{fallback}
	for _, l := range Supported {
		if l != fallback {
			ordered = append(ordered, l)
		}
	}
	tags := make([]language.Tag, len(ordered))
	for i, l := range ordered {
		tags[i] = l.Tag()
	}
	return &Resolver{fallback: fallback, matcher: language.NewMatcher(tags), locales: ordered}
}

// Fallback returns the configured default locale.
func (res *Resolver) Fallback() Locale {
	return res.fallback
}

// Resolve returns the locale of the request: the path prefix when present,
// then the locale cookie, then Accept-Language, then the fallback.
func (res *Resolver) Resolve(r *http.Request) Locale {
	if loc, ok := FromPath(r.URL.Path); ok {
		return loc
	}
	if c, err := r.Cookie(CookieName); err == nil {
		if loc, ok := Parse(c.Value); ok {
			return loc
		}
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		if _, index := language.MatchStrings(res.matcher, accept); index >= 0 && index < len(res.locales) {
			return res.locales[index]
		}
	}
	return res.fallback
}

// Handler routes page requests into the locale-specific content tree.
// Unprefixed paths are redirected to their localized URL; prefixed paths are
// served by next with the locale stored in the request context.
func (res *Resolver) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc, ok := FromPath(r.URL.Path)
		if !ok {
			target := Localize(res.Resolve(r), r.URL.Path)
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			return
		}
		w.Header().Set("Content-Language", string(loc))
		next.ServeHTTP(w, r.WithContext(ContextWithLocale(r.Context(), loc)))
	})
}

type localeContextKey struct{}

// ContextWithLocale stores the locale in context.
func ContextWithLocale(ctx context.Context, loc Locale) context.Context {
	return context.WithValue(ctx, localeContextKey{}, loc)
}

// FromContext extracts the locale from context, falling back to Default.
func FromContext(ctx context.Context) Locale {
	if loc, ok := ctx.Value(localeContextKey{}).(Locale); ok {
		return loc
	}
	return Default
}
