package middleware

import (
	"log/slog"
	"net/http"

	"github.com/user/tenant-gateway/internal/adapter/api/respond"
	"github.com/user/tenant-gateway/internal/domain"
	"github.com/user/tenant-gateway/internal/usecase"
)

// TenantQueryParam is the query-string fallback for the tenant header.
const TenantQueryParam = "tenant"

// ResolveTenant is a middleware factory that derives the tenant scope of
// the request and attaches it to the context. Resolution failures
// short-circuit with a client error, never a 500.
func ResolveTenant(resolver usecase.TenantResolver, header string, logger *slog.Logger, rw *respond.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			explicit := r.Header.Get(header)
			if explicit == "" {
				explicit = r.URL.Query().Get(TenantQueryParam)
			}

			scope, err := resolver.Resolve(r.Context(), explicit, domain.PrincipalFrom(r.Context()))
			if err != nil {
				logger.Warn("tenant resolution failed",
					"explicit", explicit,
					"error", err,
					"correlation_id", r.Header.Get(respond.CorrelationHeader),
				)
				rw.Error(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithTenantScope(r.Context(), scope)))
		})
	}
}
