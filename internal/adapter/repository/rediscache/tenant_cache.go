package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/adapter/metrics"
	"github.com/user/tenant-gateway/internal/domain"
)

const tenantKeyPrefix = "tenant:"

// negativeEntry marks a tenant id that the authoritative store does not
// know, so repeated lookups for garbage ids do not hammer postgres.
const negativeEntry = "!"

// KeyValue is the slice of the cache the tenant decorator depends on.
// Get returns ErrCacheMiss for absent keys and ErrUnavailable when the
// cache cannot be reached.
type KeyValue interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TenantCache is a read-through decorator over the authoritative tenant
// repository. Hits are served from redis; misses fall through to the
// source synchronously and populate the cache with a TTL. Cache outages
// degrade to the source rather than failing resolution.
type TenantCache struct {
	source domain.TenantRepository
	cache  KeyValue
	ttl    time.Duration
	logger *slog.Logger
	m      *metrics.GatewayMetrics
}

func NewTenantCache(source domain.TenantRepository, cache KeyValue, ttl time.Duration, logger *slog.Logger, m *metrics.GatewayMetrics) *TenantCache {
	return &TenantCache{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "tenant_cache"),
		m:      m,
	}
}

func (c *TenantCache) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	key := tenantKeyPrefix + id.String()

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		if c.m != nil {
			c.m.TenantCacheHits.Inc()
		}
		if string(data) == negativeEntry {
			return nil, domain.ErrTenantNotFound
		}
		var t domain.Tenant
		if unmarshalErr := json.Unmarshal(data, &t); unmarshalErr == nil {
			return &t, nil
		}
		// Corrupt entry: drop it and fall through.
		_ = c.cache.Delete(ctx, key)
	case errors.Is(err, ErrCacheMiss):
		if c.m != nil {
			c.m.TenantCacheMisses.Inc()
		}
	default:
		// Redis outage already retried inside Cache; resolution must
		// still work, so fall through to the authoritative store.
		c.logger.Warn("tenant cache unavailable, using source", "error", err)
	}

	t, err := c.source.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			// Negative entries use a short TTL so a newly created
			// tenant becomes visible quickly.
			_ = c.cache.Set(ctx, key, []byte(negativeEntry), c.ttl/10+time.Second)
		}
		return nil, err
	}

	if data, marshalErr := json.Marshal(t); marshalErr == nil {
		if setErr := c.cache.Set(ctx, key, data, c.ttl); setErr != nil {
			c.logger.Warn("failed to populate tenant cache", "tenant_id", id, "error", setErr)
		}
	}
	return t, nil
}

func (c *TenantCache) List(ctx context.Context, page domain.Page) ([]*domain.Tenant, error) {
	return c.source.List(ctx, page)
}

// Store writes through to the source and invalidates the cached entry so
// the next resolution sees the new state.
func (c *TenantCache) Store(ctx context.Context, t *domain.Tenant) error {
	if err := c.source.Store(ctx, t); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, tenantKeyPrefix+t.ID.String()); err != nil {
		c.logger.Warn("failed to invalidate tenant cache", "tenant_id", t.ID, "error", err)
	}
	return nil
}
