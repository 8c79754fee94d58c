package rediscache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/tenant-gateway/internal/domain"
)

// ErrCacheMiss is returned when a key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

const (
	retryAttempts = 2
	retryBackoff  = 100 * time.Millisecond
)

// Cache is a thin namespaced wrapper around redis used for distributed
// lookups (resolved tenants, session/key material). Every key carries
// the deployment's fixed prefix. Transient redis errors are retried with
// a bounded backoff before being reported as ErrUnavailable.
type Cache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func New(client *redis.Client, prefix string, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		logger: logger.With("component", "redis_cache"),
	}
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

// Get reads a key. Returns ErrCacheMiss when absent, ErrUnavailable when
// redis cannot be reached after retries.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := c.withRetry(ctx, func() error {
		b, err := c.client.Get(ctx, c.key(key)).Bytes()
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: redis get: %v", domain.ErrUnavailable, err)
	}
	return data, nil
}

// Set writes a key with the given time-to-live.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.withRetry(ctx, func() error {
		return c.client.Set(ctx, c.key(key), value, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: redis set: %v", domain.ErrUnavailable, err)
	}
	return nil
}

// Delete removes a key, ignoring absence.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.withRetry(ctx, func() error {
		return c.client.Del(ctx, c.key(key)).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: redis del: %v", domain.ErrUnavailable, err)
	}
	return nil
}

// withRetry runs op, retrying transient failures a bounded number of
// times. redis.Nil is a definitive answer and never retried.
func (c *Cache) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}
		err = op()
		if err == nil || errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
			return err
		}
		c.logger.Warn("redis operation failed, retrying", "attempt", attempt+1, "error", err)
	}
	return err
}
