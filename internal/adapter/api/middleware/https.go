package middleware

import (
	"net/http"
	"strings"
)

// RequireHTTPS redirects plain-HTTP requests to their HTTPS equivalent.
// Deployments behind a TLS-terminating proxy are recognized through
// X-Forwarded-Proto. Disabled in development.
func RequireHTTPS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled || r.TLS != nil ||
				strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				next.ServeHTTP(w, r)
				return
			}

			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}
