package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
	"github.com/user/tenant-gateway/internal/domain/mocks"
)

func seedTenant(repo *mocks.MockTenantRepository, active bool) *domain.Tenant {
	t := &domain.Tenant{
		ID:        uuid.New(),
		Name:      "acme",
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
	}
	repo.Tenants[t.ID] = t
	return t
}

func TestTenantResolve(t *testing.T) {
	repo := mocks.NewMockTenantRepository()
	active := seedTenant(repo, true)
	inactive := seedTenant(repo, false)
	unknown := uuid.New()

	resolver := NewTenantResolver(repo, true, testLogger())
	ctx := context.Background()

	tests := []struct {
		name      string
		explicit  string
		principal *domain.Principal
		wantErr   error
		wantHost  bool
		wantID    *uuid.UUID
	}{
		{
			name:     "explicit header wins",
			explicit: active.ID.String(),
			wantID:   &active.ID,
		},
		{
			name:      "token claim used when no header",
			principal: &domain.Principal{TenantID: &active.ID},
			wantID:    &active.ID,
		},
		{
			name:     "no header and no claim means host",
			wantHost: true,
		},
		{
			name:      "anonymous with no header means host",
			principal: &domain.Principal{},
			wantHost:  true,
		},
		{
			name:     "malformed explicit id",
			explicit: "definitely-not-a-uuid",
			wantErr:  domain.ErrTenantNotFound,
		},
		{
			name:     "unknown tenant",
			explicit: unknown.String(),
			wantErr:  domain.ErrTenantNotFound,
		},
		{
			name:     "deactivated tenant",
			explicit: inactive.ID.String(),
			wantErr:  domain.ErrTenantNotFound,
		},
		{
			name:      "header contradicting token claim",
			explicit:  active.ID.String(),
			principal: &domain.Principal{TenantID: &inactive.ID},
			wantErr:   domain.ErrForbidden,
		},
		{
			name:      "header agreeing with token claim",
			explicit:  active.ID.String(),
			principal: &domain.Principal{TenantID: &active.ID},
			wantID:    &active.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := resolver.Resolve(ctx, tt.explicit, tt.principal)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if scope.Host != tt.wantHost {
				t.Errorf("Host = %v, want %v", scope.Host, tt.wantHost)
			}
			if tt.wantID != nil {
				if scope.TenantID == nil || *scope.TenantID != *tt.wantID {
					t.Errorf("TenantID = %v, want %v", scope.TenantID, *tt.wantID)
				}
			}
		})
	}
}

func TestTenantResolveDisabled(t *testing.T) {
	repo := mocks.NewMockTenantRepository()
	active := seedTenant(repo, true)

	resolver := NewTenantResolver(repo, false, testLogger())

	// With multitenancy off every request is host scope, headers included.
	scope, err := resolver.Resolve(context.Background(), active.ID.String(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !scope.Host {
		t.Error("expected host scope with multitenancy disabled")
	}
	if repo.FindCalls != 0 {
		t.Errorf("resolver consulted storage %d times while disabled", repo.FindCalls)
	}
}

func TestTenantResolveRepoOutage(t *testing.T) {
	repo := mocks.NewMockTenantRepository()
	repo.FindErr = errors.New("connection refused")

	resolver := NewTenantResolver(repo, true, testLogger())

	_, err := resolver.Resolve(context.Background(), uuid.NewString(), nil)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on repo outage, got %v", err)
	}
}

func TestTenantAdminService(t *testing.T) {
	repo := mocks.NewMockTenantRepository()
	svc := NewTenantAdminService(repo, testLogger())
	ctx := context.Background()

	if _, err := svc.Create(ctx, ""); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation for empty name, got %v", err)
	}

	created, err := svc.Create(ctx, "acme")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !created.IsActive {
		t.Error("new tenants must start active")
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "acme" {
		t.Errorf("Name = %q", got.Name)
	}

	list, err := svc.List(ctx, domain.Page{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("list returned %d tenants, want 1", len(list))
	}
}
