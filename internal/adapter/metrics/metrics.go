package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GatewayMetrics holds all Prometheus metrics for the API host.
type GatewayMetrics struct {
	RequestsTotal     *prometheus.CounterVec
	AuthFailures      prometheus.Counter
	TenantCacheHits   prometheus.Counter
	TenantCacheMisses prometheus.Counter
	RateLimited       prometheus.Counter
	AuditSpoolActive  prometheus.Gauge
}

// NewGatewayMetrics initializes and registers the Prometheus metrics.
func NewGatewayMetrics() *GatewayMetrics {
	return &GatewayMetrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of handled HTTP requests by status code.",
		}, []string{"code"}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Total number of rejected bearer tokens.",
		}),
		TenantCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "tenant",
			Name:      "cache_hits_total",
			Help:      "Total number of tenant resolution cache hits.",
		}),
		TenantCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "tenant",
			Name:      "cache_misses_total",
			Help:      "Total number of tenant resolution cache misses.",
		}),
		RateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter.",
		}),
		AuditSpoolActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "gateway",
			Subsystem: "audit",
			Name:      "spool_active_gauge",
			Help:      "Indicates if audit records are currently spooling to disk (1 active, 0 inactive).",
		}),
	}
}
