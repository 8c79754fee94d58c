package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
)

type demoService struct {
	repo   domain.DemoRepository
	logger *slog.Logger
}

// NewDemoService creates the Demo CRUD service.
func NewDemoService(repo domain.DemoRepository, logger *slog.Logger) DemoUseCase {
	return &demoService{
		repo:   repo,
		logger: logger.With("component", "demo_service"),
	}
}

func (s *demoService) Create(ctx context.Context, input CreateDemoInput) (*domain.Demo, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	scope := domain.TenantScopeFrom(ctx)
	now := time.Now().UTC()

	d := &domain.Demo{
		ID:           uuid.New(),
		Name:         input.Name,
		TenantID:     scope.TenantID,
		CreationTime: now,
		CreatorID:    actingUserID(ctx),
	}

	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *demoService) Get(ctx context.Context, id uuid.UUID) (*domain.Demo, error) {
	return s.visibleRow(ctx, id)
}

func (s *demoService) List(ctx context.Context, filter domain.DemoFilter, page domain.Page) ([]*domain.Demo, error) {
	scope := domain.TenantScopeFrom(ctx)
	if !scope.Host {
		// Only host-scope callers may look at soft-deleted rows.
		filter.IncludeDeleted = false
	}
	return s.repo.List(ctx, scope.TenantID, filter, page)
}

func (s *demoService) Update(ctx context.Context, id uuid.UUID, input UpdateDemoInput) (*domain.Demo, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	d, err := s.visibleRow(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.IsDeleted {
		// Host scope can read deleted rows but never mutate them.
		return nil, domain.ErrNotFound
	}

	now := time.Now().UTC()
	d.Name = input.Name
	d.LastModificationTime = &now
	d.LastModifierID = actingUserID(ctx)
	d.RowVersion = input.RowVersion

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *demoService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	d, err := s.visibleRowAnyState(ctx, id)
	if err != nil {
		return err
	}
	if d.IsDeleted {
		// Idempotent: deleting an already-deleted entity succeeds.
		return nil
	}

	return s.repo.MarkDeleted(ctx, id, actingUserID(ctx), time.Now().UTC())
}

// visibleRow loads a row and enforces tenant visibility. Tenant-scoped
// callers never learn whether a foreign or soft-deleted row exists; both
// read as ErrNotFound.
func (s *demoService) visibleRow(ctx context.Context, id uuid.UUID) (*domain.Demo, error) {
	d, err := s.visibleRowAnyState(ctx, id)
	if err != nil {
		return nil, err
	}

	scope := domain.TenantScopeFrom(ctx)
	if d.IsDeleted && !scope.Host {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (s *demoService) visibleRowAnyState(ctx context.Context, id uuid.UUID) (*domain.Demo, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	scope := domain.TenantScopeFrom(ctx)
	if !scope.Host && !sameTenant(d.TenantID, scope.TenantID) {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func actingUserID(ctx context.Context) *uuid.UUID {
	p := domain.PrincipalFrom(ctx)
	if p == nil {
		return nil
	}
	id := p.UserID
	return &id
}

func sameTenant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
