package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds the handling of each request. Store calls observe the
// deadline through the request context, so a stalled collaborator turns
// into a timeout error instead of hanging the caller.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
