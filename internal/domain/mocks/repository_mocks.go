package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
)

// MockDemoRepository is a map-backed implementation of domain.DemoRepository
// for testing. It mirrors the row-version semantics of the postgres
// repository so service tests exercise real conflict paths.
type MockDemoRepository struct {
	mu        sync.Mutex
	Rows      map[uuid.UUID]*domain.Demo
	InsertErr error
	FindErr   error
	ListErr   error
	UpdateErr error
	DeleteErr error
}

func NewMockDemoRepository() *MockDemoRepository {
	return &MockDemoRepository{Rows: make(map[uuid.UUID]*domain.Demo)}
}

func (m *MockDemoRepository) Insert(ctx context.Context, d *domain.Demo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	cp := *d
	m.Rows[d.ID] = &cp
	return nil
}

func (m *MockDemoRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Demo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	row, ok := m.Rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *MockDemoRepository) List(ctx context.Context, tenantID *uuid.UUID, filter domain.DemoFilter, page domain.Page) ([]*domain.Demo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}

	var out []*domain.Demo
	for _, row := range m.Rows {
		if !sameTenant(row.TenantID, tenantID) {
			continue
		}
		if row.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.Name != "" && !strings.Contains(row.Name, filter.Name) {
			continue
		}
		cp := *row
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreationTime.Equal(out[j].CreationTime) {
			return out[i].CreationTime.Before(out[j].CreationTime)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if page.Offset > 0 {
		if page.Offset >= len(out) {
			return nil, nil
		}
		out = out[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(out) {
		out = out[:page.Limit]
	}
	return out, nil
}

func (m *MockDemoRepository) Update(ctx context.Context, d *domain.Demo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	row, ok := m.Rows[d.ID]
	if !ok || row.IsDeleted {
		return domain.ErrNotFound
	}
	if row.RowVersion != d.RowVersion {
		return domain.ErrConflict
	}
	cp := *d
	cp.RowVersion++
	m.Rows[d.ID] = &cp
	d.RowVersion = cp.RowVersion
	return nil
}

func (m *MockDemoRepository) MarkDeleted(ctx context.Context, id uuid.UUID, deleterID *uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	row, ok := m.Rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	if row.IsDeleted {
		return nil // already deleted, no-op success
	}
	row.IsDeleted = true
	row.DeletionTime = &at
	row.DeleterID = deleterID
	row.RowVersion++
	return nil
}

// MockTenantRepository is a mock implementation of domain.TenantRepository.
type MockTenantRepository struct {
	mu       sync.Mutex
	Tenants  map[uuid.UUID]*domain.Tenant
	FindErr  error
	ListErr  error
	StoreErr error
	// FindCalls counts FindByID invocations so cache tests can assert
	// read-through behavior.
	FindCalls int
}

func NewMockTenantRepository() *MockTenantRepository {
	return &MockTenantRepository{Tenants: make(map[uuid.UUID]*domain.Tenant)}
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	t, ok := m.Tenants[id]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTenantRepository) List(ctx context.Context, page domain.Page) ([]*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.Tenant
	for _, t := range m.Tenants {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MockTenantRepository) Store(ctx context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreErr != nil {
		return m.StoreErr
	}
	cp := *t
	m.Tenants[t.ID] = &cp
	return nil
}

// MockAuditRepository records audit writes for assertions.
type MockAuditRepository struct {
	mu       sync.Mutex
	Records  []*domain.AuditRecord
	StoreErr error
}

func (m *MockAuditRepository) Store(ctx context.Context, rec *domain.AuditRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StoreErr != nil {
		return m.StoreErr
	}
	cp := *rec
	m.Records = append(m.Records, &cp)
	return nil
}

// Stored returns a snapshot of the recorded audit records.
func (m *MockAuditRepository) Stored() []*domain.AuditRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.AuditRecord, len(m.Records))
	copy(out, m.Records)
	return out
}

func sameTenant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
