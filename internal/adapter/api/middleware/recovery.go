package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/user/tenant-gateway/internal/adapter/api/respond"
)

// Recovery converts handler panics into a generic 500 so the connection
// is never dropped mid-response with internals attached.
func Recovery(logger *slog.Logger, rw *respond.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"panic", rec,
						"path", r.URL.Path,
						"correlation_id", r.Header.Get(respond.CorrelationHeader),
					)
					rw.Error(w, r, fmt.Errorf("panic: %v", rec))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
