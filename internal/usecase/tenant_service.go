package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
)

type tenantResolver struct {
	repo    domain.TenantRepository
	enabled bool
	logger  *slog.Logger
}

// NewTenantResolver creates the request tenant resolver. The repository
// is expected to be the cached (read-through) tenant repository so
// resolution never hits persistent storage beyond a cache miss.
func NewTenantResolver(repo domain.TenantRepository, enabled bool, logger *slog.Logger) TenantResolver {
	return &tenantResolver{
		repo:    repo,
		enabled: enabled,
		logger:  logger.With("component", "tenant_resolver"),
	}
}

func (r *tenantResolver) Resolve(ctx context.Context, explicit string, principal *domain.Principal) (domain.TenantScope, error) {
	if !r.enabled {
		return domain.HostScope(), nil
	}

	// Resolution order: explicit header/query value, then the token's
	// tenant claim, then host context.
	var candidate *uuid.UUID
	if explicit != "" {
		id, err := uuid.Parse(explicit)
		if err != nil {
			return domain.TenantScope{}, fmt.Errorf("%w: malformed tenant id %q", domain.ErrTenantNotFound, explicit)
		}
		candidate = &id
	} else if principal != nil && principal.TenantID != nil {
		candidate = principal.TenantID
	}

	if candidate == nil {
		return domain.HostScope(), nil
	}

	// A tenant-bound token cannot address a different tenant explicitly.
	if principal != nil && principal.TenantID != nil && *principal.TenantID != *candidate {
		return domain.TenantScope{}, fmt.Errorf("%w: token is bound to another tenant", domain.ErrForbidden)
	}

	tenant, err := r.repo.FindByID(ctx, *candidate)
	if err != nil {
		if errors.Is(err, domain.ErrTenantNotFound) {
			return domain.TenantScope{}, err
		}
		// Resolution failure from a flaky collaborator must not turn
		// into a silent host-scope request.
		return domain.TenantScope{}, fmt.Errorf("%w: tenant lookup: %v", domain.ErrUnavailable, err)
	}
	if !tenant.IsActive {
		return domain.TenantScope{}, fmt.Errorf("%w: tenant %s is deactivated", domain.ErrTenantNotFound, tenant.ID)
	}

	return domain.ScopeFor(tenant.ID), nil
}

type tenantAdminService struct {
	repo   domain.TenantRepository
	logger *slog.Logger
}

// NewTenantAdminService creates the host-plane tenant management service.
func NewTenantAdminService(repo domain.TenantRepository, logger *slog.Logger) TenantAdminUseCase {
	return &tenantAdminService{
		repo:   repo,
		logger: logger.With("component", "tenant_admin"),
	}
}

func (s *tenantAdminService) Create(ctx context.Context, name string) (*domain.Tenant, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	t := &domain.Tenant{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Store(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("tenant created", "tenant_id", t.ID, "name", t.Name)
	return t, nil
}

func (s *tenantAdminService) Get(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *tenantAdminService) List(ctx context.Context, page domain.Page) ([]*domain.Tenant, error) {
	return s.repo.List(ctx, page)
}
