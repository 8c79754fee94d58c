package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Demo is the tenant-scoped CRUD resource exposed by the gateway.
// A nil TenantID marks a row as host/shared scope. Rows are never
// physically removed through the API; deletion flips IsDeleted and
// records who and when.
type Demo struct {
	ID                   uuid.UUID  `json:"id"`
	Name                 string     `json:"name"`
	TenantID             *uuid.UUID `json:"tenant_id,omitempty"`
	CreationTime         time.Time  `json:"creation_time"`
	CreatorID            *uuid.UUID `json:"creator_id,omitempty"`
	LastModificationTime *time.Time `json:"last_modification_time,omitempty"`
	LastModifierID       *uuid.UUID `json:"last_modifier_id,omitempty"`
	DeletionTime         *time.Time `json:"deletion_time,omitempty"`
	DeleterID            *uuid.UUID `json:"deleter_id,omitempty"`
	IsDeleted            bool       `json:"is_deleted"`
	RowVersion           int64      `json:"row_version"`
}

// DemoFilter narrows a List call. Zero values mean "no constraint".
type DemoFilter struct {
	Name           string // substring match on Name
	IncludeDeleted bool   // honored only for host-scope callers
}

// Page describes offset pagination. Results are ordered by
// (creation_time, id) so pages are stable between calls.
type Page struct {
	Limit  int
	Offset int
}

// DemoRepository defines the persistence contract for Demo rows.
// Tenant scoping is explicit: a nil tenantID selects host-scope rows,
// and scope enforcement happens in the service layer above.
type DemoRepository interface {
	// Insert stores a new row. The caller assigns ID and CreationTime.
	Insert(ctx context.Context, d *Demo) error

	// FindByID returns the row regardless of its IsDeleted flag so the
	// caller can distinguish "absent" from "soft-deleted".
	FindByID(ctx context.Context, id uuid.UUID) (*Demo, error)

	// List returns rows scoped to tenantID matching the filter.
	List(ctx context.Context, tenantID *uuid.UUID, filter DemoFilter, page Page) ([]*Demo, error)

	// Update writes mutable and audit fields. It must fail with
	// ErrConflict when the stored row_version differs from d.RowVersion,
	// and increment the version on success.
	Update(ctx context.Context, d *Demo) error

	// MarkDeleted soft-deletes the row. Deleting an already-deleted row
	// is a no-op success.
	MarkDeleted(ctx context.Context, id uuid.UUID, deleterID *uuid.UUID, at time.Time) error
}
