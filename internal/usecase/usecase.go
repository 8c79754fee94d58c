package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
)

// CreateDemoInput carries the caller-supplied fields for a new Demo.
type CreateDemoInput struct {
	Name string `json:"name"`
}

// UpdateDemoInput carries the mutable fields of a Demo. RowVersion is the
// concurrency token the caller read; a stale token fails with ErrConflict.
type UpdateDemoInput struct {
	Name       string `json:"name"`
	RowVersion int64  `json:"row_version"`
}

// DemoUseCase is the tenant-scoped CRUD surface over the Demo resource.
// Tenant scope and acting principal travel on the context.
type DemoUseCase interface {
	Create(ctx context.Context, input CreateDemoInput) (*domain.Demo, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Demo, error)
	List(ctx context.Context, filter domain.DemoFilter, page domain.Page) ([]*domain.Demo, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateDemoInput) (*domain.Demo, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// TenantResolver derives the tenant scope of a request.
type TenantResolver interface {
	// Resolve inspects, in order, the explicit tenant id (header or query
	// parameter), then the token's tenant claim, and finally falls back
	// to host scope. An unknown or inactive tenant fails with
	// ErrTenantNotFound.
	Resolve(ctx context.Context, explicit string, principal *domain.Principal) (domain.TenantScope, error)
}

// TenantAdminUseCase is the host-plane tenant management surface.
type TenantAdminUseCase interface {
	Create(ctx context.Context, name string) (*domain.Tenant, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
	List(ctx context.Context, page domain.Page) ([]*domain.Tenant, error)
}

// AuditUseCase records handled requests. Recording must never fail a
// request; unreachable storage spools locally instead.
type AuditUseCase interface {
	Record(ctx context.Context, rec *domain.AuditRecord)
}
