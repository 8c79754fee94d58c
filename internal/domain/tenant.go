package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant represents an isolated customer account.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantRepository defines the interface for tenant persistence.
type TenantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	List(ctx context.Context, page Page) ([]*Tenant, error)
	Store(ctx context.Context, t *Tenant) error
}

// TenantScope is the resolved tenancy of a request. Host is true when no
// tenant applies (the shared/host context); host callers see host-scope
// rows and may inspect soft-deleted data.
type TenantScope struct {
	TenantID *uuid.UUID
	Host     bool
}

// HostScope returns the scope of the shared/host context.
func HostScope() TenantScope {
	return TenantScope{Host: true}
}

// ScopeFor returns the scope of a single tenant.
func ScopeFor(id uuid.UUID) TenantScope {
	return TenantScope{TenantID: &id}
}

type tenantScopeKey struct{}

// WithTenantScope attaches the resolved scope to the request context.
func WithTenantScope(ctx context.Context, scope TenantScope) context.Context {
	return context.WithValue(ctx, tenantScopeKey{}, scope)
}

// TenantScopeFrom extracts the scope placed by the tenant middleware.
// Absence means the request never passed resolution and is treated as
// host scope.
func TenantScopeFrom(ctx context.Context) TenantScope {
	if s, ok := ctx.Value(tenantScopeKey{}).(TenantScope); ok {
		return s
	}
	return HostScope()
}
