// Package locale resolves the active portal locale from request paths and
// guarantees that page URLs carry a locale prefix.
package locale

import (
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported two-letter portal locale.
type Locale string

// Supported locales.
const (
	French Locale = "fr"
	Arabic Locale = "ar"
)

// Default is the locale assumed when a path has no prefix.
const Default = Arabic

// Supported lists the portal locales; the first entry is the default.
var Supported = []Locale{Arabic, French}

// Parse returns the locale matching raw, if supported.
func Parse(raw string) (Locale, bool) {
	switch Locale(strings.ToLower(strings.TrimSpace(raw))) {
	case French:
		return French, true
	case Arabic:
		return Arabic, true
	}
	return "", false
}

// Tag returns the BCP 47 tag of the locale.
func (l Locale) Tag() language.Tag {
	if l == French {
		return language.French
	}
	return language.Arabic
}

// Direction returns the text direction of the locale: "rtl" or "ltr".
func (l Locale) Direction() string {
	base, _ := l.Tag().Base()
	switch base.String() {
	case "ar", "he", "fa", "ur":
		return "rtl"
	}
	return "ltr"
}

// FromPath extracts the locale prefix of path, if present.
func FromPath(path string) (Locale, bool) {
	seg := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(seg, '/'); i >= 0 {
		seg = seg[:i]
	}
	if len(seg) != 2 {
		return "", false
	}
	loc, ok := Parse(seg)
	if !ok || string(loc) != seg {
		return "", false
	}
	return loc, true
}

// StripLocale removes a leading /fr or /ar segment. The result always starts with "/".
func StripLocale(path string) string {
	loc, ok := FromPath(path)
	if !ok {
		if path == "" {
			return "/"
		}
		return path
	}
	rest := strings.TrimPrefix(path, "/"+string(loc))
	if rest == "" {
		return "/"
	}
	return rest
}

// Localize prefixes path with the locale segment, replacing any existing one.
func Localize(loc Locale, path string) string {
	stripped := StripLocale(path)
	if stripped == "/" {
		return "/" + string(loc)
	}
	return "/" + string(loc) + stripped
}
