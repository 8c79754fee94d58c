package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// NegotiateLocale picks the best match between the Accept-Language header
// and the configured languages, sets Content-Language on the response,
// and falls back to the first configured language. Only negotiation
// happens here; string catalogs are out of scope.
func NegotiateLocale(languages []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(languages) > 0 {
				w.Header().Set("Content-Language", pickLanguage(r.Header.Get("Accept-Language"), languages))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// pickLanguage implements a minimal quality-weighted Accept-Language
// match. Tags compare case-insensitively and a primary-subtag prefix
// counts as a match ("zh" matches "zh-Hans").
func pickLanguage(accept string, languages []string) string {
	type candidate struct {
		tag string
		q   float64
	}

	var candidates []candidate
	for _, part := range strings.Split(accept, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tag, qstr, found := strings.Cut(part, ";q=")
		q := 1.0
		if found {
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(qstr), 64); err == nil {
				q = parsed
			}
		}
		candidates = append(candidates, candidate{tag: strings.TrimSpace(tag), q: q})
	}

	best := languages[0]
	bestQ := 0.0
	for _, c := range candidates {
		if c.q <= bestQ {
			continue
		}
		for _, lang := range languages {
			if matchLanguage(c.tag, lang) {
				best = lang
				bestQ = c.q
				break
			}
		}
	}
	return best
}

func matchLanguage(tag, lang string) bool {
	tag, lang = strings.ToLower(tag), strings.ToLower(lang)
	if tag == "*" || tag == lang {
		return true
	}
	primary, _, _ := strings.Cut(lang, "-")
	return tag == primary
}
