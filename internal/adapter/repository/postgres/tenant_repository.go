package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
)

// TenantRepository implements domain.TenantRepository on PostgreSQL.
// It is the authoritative source behind the redis read-through cache.
type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	query := `
        SELECT id, name, is_active, created_at
        FROM tenants
        WHERE id = $1
    `

	var t domain.Tenant
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.IsActive,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("find tenant by id: %w", err)
	}

	return &t, nil
}

func (r *TenantRepository) List(ctx context.Context, page domain.Page) ([]*domain.Tenant, error) {
	limit := page.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	query := `
        SELECT id, name, is_active, created_at
        FROM tenants
        ORDER BY created_at, id
        LIMIT $1 OFFSET $2
    `

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []*domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return out, nil
}

func (r *TenantRepository) Store(ctx context.Context, t *domain.Tenant) error {
	query := `
        INSERT INTO tenants (id, name, is_active, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET name = $2, is_active = $3
    `

	_, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.IsActive, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("store tenant: %w", err)
	}
	return nil
}
