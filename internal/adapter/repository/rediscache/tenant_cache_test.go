package rediscache

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
	"github.com/user/tenant-gateway/internal/domain/mocks"
)

// fakeKeyValue is an in-memory KeyValue with injectable failures.
type fakeKeyValue struct {
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeKeyValue() *fakeKeyValue {
	return &fakeKeyValue{data: make(map[string][]byte)}
}

func (f *fakeKeyValue) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (f *fakeKeyValue) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKeyValue) Delete(ctx context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func cacheTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedTenant(repo *mocks.MockTenantRepository, name string) *domain.Tenant {
	t := &domain.Tenant{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	repo.Tenants[t.ID] = t
	return t
}

func TestTenantCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTenantRepository()
	tenant := seedTenant(repo, "acme")

	kv := newFakeKeyValue()
	c := NewTenantCache(repo, kv, 5*time.Minute, cacheTestLogger(), nil)

	// First lookup misses the cache and consults the source.
	got, err := c.FindByID(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	if got.Name != "acme" {
		t.Errorf("Name = %q", got.Name)
	}
	if repo.FindCalls != 1 {
		t.Fatalf("FindCalls = %d after miss, want 1", repo.FindCalls)
	}

	// Second lookup is a hit and must not touch the source.
	got, err = c.FindByID(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}
	if got.ID != tenant.ID || got.Name != "acme" {
		t.Errorf("cached tenant = %+v", got)
	}
	if repo.FindCalls != 1 {
		t.Errorf("FindCalls = %d after hit, want 1", repo.FindCalls)
	}
}

func TestTenantCacheNegativeEntry(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTenantRepository()
	kv := newFakeKeyValue()
	c := NewTenantCache(repo, kv, 5*time.Minute, cacheTestLogger(), nil)

	unknown := uuid.New()
	for i := 0; i < 2; i++ {
		if _, err := c.FindByID(ctx, unknown); err != domain.ErrTenantNotFound {
			t.Fatalf("lookup %d: err = %v, want ErrTenantNotFound", i, err)
		}
	}

	// The miss is cached negatively; only the first lookup reaches the
	// source.
	if repo.FindCalls != 1 {
		t.Errorf("FindCalls = %d, want 1", repo.FindCalls)
	}
	if string(kv.data[tenantKeyPrefix+unknown.String()]) != negativeEntry {
		t.Errorf("negative entry not cached: %q", kv.data[tenantKeyPrefix+unknown.String()])
	}
}

func TestTenantCacheOutageFallsThroughToSource(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTenantRepository()
	tenant := seedTenant(repo, "acme")

	kv := newFakeKeyValue()
	kv.getErr = fmt.Errorf("%w: redis get: connection refused", domain.ErrUnavailable)
	kv.setErr = fmt.Errorf("%w: redis set: connection refused", domain.ErrUnavailable)
	c := NewTenantCache(repo, kv, 5*time.Minute, cacheTestLogger(), nil)

	for i := 0; i < 2; i++ {
		got, err := c.FindByID(ctx, tenant.ID)
		if err != nil {
			t.Fatalf("lookup %d during outage failed: %v", i, err)
		}
		if got.ID != tenant.ID {
			t.Errorf("lookup %d: tenant = %+v", i, got)
		}
	}

	// Every lookup reaches the source while the cache is down.
	if repo.FindCalls != 2 {
		t.Errorf("FindCalls = %d, want 2", repo.FindCalls)
	}
}

func TestTenantCacheCorruptEntryFallsThrough(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTenantRepository()
	tenant := seedTenant(repo, "acme")

	kv := newFakeKeyValue()
	kv.data[tenantKeyPrefix+tenant.ID.String()] = []byte("{not json")
	c := NewTenantCache(repo, kv, 5*time.Minute, cacheTestLogger(), nil)

	got, err := c.FindByID(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.Name != "acme" {
		t.Errorf("Name = %q", got.Name)
	}
	if repo.FindCalls != 1 {
		t.Errorf("FindCalls = %d, want 1", repo.FindCalls)
	}
}

func TestTenantCacheStoreInvalidates(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMockTenantRepository()
	tenant := seedTenant(repo, "acme")

	kv := newFakeKeyValue()
	c := NewTenantCache(repo, kv, 5*time.Minute, cacheTestLogger(), nil)

	if _, err := c.FindByID(ctx, tenant.ID); err != nil {
		t.Fatalf("warm-up lookup failed: %v", err)
	}

	renamed := *tenant
	renamed.Name = "acme-renamed"
	if err := c.Store(ctx, &renamed); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	got, err := c.FindByID(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("lookup after store failed: %v", err)
	}
	if got.Name != "acme-renamed" {
		t.Errorf("Name = %q after invalidation, want %q", got.Name, "acme-renamed")
	}
	if repo.FindCalls != 2 {
		t.Errorf("FindCalls = %d, want 2 (store must invalidate the entry)", repo.FindCalls)
	}
}
