package middleware

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/adapter/api/respond"
	"github.com/user/tenant-gateway/internal/domain"
	"github.com/user/tenant-gateway/internal/usecase"
)

// sensitiveParams are scrubbed from the recorded query string so the
// audit trail never stores credentials or tokens.
var sensitiveParams = []string{"access_token", "token", "password", "secret", "api_key"}

// Audit is a middleware factory that emits one audit record per handled
// request, after the handler ran. Recording failures never affect the
// response.
func Audit(recorder usecase.AuditUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			rec := &domain.AuditRecord{
				ID:            uuid.New(),
				CorrelationID: r.Header.Get(respond.CorrelationHeader),
				Method:        r.Method,
				Path:          r.URL.Path,
				Query:         scrubQuery(r.URL.Query()),
				StatusCode:    rw.statusCode,
				ClientIP:      clientIP(r),
				DurationMS:    time.Since(start).Milliseconds(),
				ExecutedAt:    start.UTC(),
			}
			if p := domain.PrincipalFrom(r.Context()); p != nil {
				id := p.UserID
				rec.UserID = &id
			}
			if scope := domain.TenantScopeFrom(r.Context()); scope.TenantID != nil {
				rec.TenantID = scope.TenantID
			}

			// A client disconnect must not abort the audit write.
			recorder.Record(context.WithoutCancel(r.Context()), rec)
		})
	}
}

// scrubQuery redacts sensitive parameter values while keeping the keys
// visible for diagnostics.
func scrubQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	for _, param := range sensitiveParams {
		if values.Has(param) {
			values.Set(param, "[REDACTED]")
		}
	}
	return values.Encode()
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
