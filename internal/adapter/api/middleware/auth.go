package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/user/tenant-gateway/internal/adapter/api/respond"
	"github.com/user/tenant-gateway/internal/adapter/metrics"
	"github.com/user/tenant-gateway/internal/domain"
)

// TokenAuthenticator validates a raw bearer token and returns the
// remapped principal. Implemented by the auth gate.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*domain.Principal, error)
}

// Authenticate is a middleware factory that validates the bearer token
// and attaches the resulting principal to the request context. Requests
// without a valid token are rejected with 401.
func Authenticate(gate TokenAuthenticator, logger *slog.Logger, m *metrics.GatewayMetrics, rw *respond.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if m != nil {
					m.AuthFailures.Inc()
				}
				rw.Error(w, r, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated))
				return
			}

			principal, err := gate.Authenticate(r.Context(), token)
			if err != nil {
				if m != nil {
					m.AuthFailures.Inc()
				}
				logger.Warn("rejected bearer token", "remote_addr", r.RemoteAddr)
				rw.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireScope rejects authenticated requests whose token does not carry
// the scope gating the resource set.
func RequireScope(scope string, rw *respond.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := domain.PrincipalFrom(r.Context())
			if p == nil {
				rw.Error(w, r, domain.ErrUnauthenticated)
				return
			}
			if scope != "" && !p.HasScope(scope) {
				rw.Error(w, r, fmt.Errorf("%w: scope %q is required", domain.ErrForbidden, scope))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return header[len(prefix):]
}
