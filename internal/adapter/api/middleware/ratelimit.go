package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/user/tenant-gateway/internal/adapter/api/respond"
	"github.com/user/tenant-gateway/internal/adapter/metrics"
)

// maxTrackedClients bounds the limiter table; when exceeded the table is
// reset rather than growing without bound.
const maxTrackedClients = 10000

// RateLimit applies a per-client token bucket keyed by remote IP.
func RateLimit(rps float64, burst int, logger *slog.Logger, m *metrics.GatewayMetrics, rw *respond.Writer) func(http.Handler) http.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if l, ok := limiters[key]; ok {
			return l
		}
		if len(limiters) >= maxTrackedClients {
			limiters = make(map[string]*rate.Limiter)
		}
		l := rate.NewLimiter(rate.Limit(rps), burst)
		limiters[key] = l
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !limiterFor(host).Allow() {
				if m != nil {
					m.RateLimited.Inc()
				}
				logger.Warn("rate limited", "remote_addr", r.RemoteAddr)
				w.Header().Set("Retry-After", "1")
				rw.JSON(w, http.StatusTooManyRequests, respond.ErrorBody{
					Code:          "rate_limited",
					Message:       "Too many requests.",
					CorrelationID: r.Header.Get(respond.CorrelationHeader),
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
