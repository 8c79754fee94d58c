package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/adapter/api/respond"
)

// CorrelationID assigns each request a correlation id, honoring one the
// caller already supplied. The id is echoed on the response and travels
// with the request into logging and auditing.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(respond.CorrelationHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(respond.CorrelationHeader, id)
		}
		w.Header().Set(respond.CorrelationHeader, id)

		next.ServeHTTP(w, r)
	})
}
