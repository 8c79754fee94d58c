package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/tenant-gateway/internal/domain"
)

// DemoRepository implements domain.DemoRepository on PostgreSQL.
type DemoRepository struct {
	db *sql.DB
}

func NewDemoRepository(db *sql.DB) *DemoRepository {
	return &DemoRepository{db: db}
}

const demoColumns = `id, name, tenant_id, creation_time, creator_id,
	last_modification_time, last_modifier_id, deletion_time, deleter_id,
	is_deleted, row_version`

func (r *DemoRepository) Insert(ctx context.Context, d *domain.Demo) error {
	query := `
        INSERT INTO demos (` + demoColumns + `)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `

	_, err := r.db.ExecContext(ctx, query,
		d.ID,
		d.Name,
		nullUUID(d.TenantID),
		d.CreationTime,
		nullUUID(d.CreatorID),
		nullTime(d.LastModificationTime),
		nullUUID(d.LastModifierID),
		nullTime(d.DeletionTime),
		nullUUID(d.DeleterID),
		d.IsDeleted,
		d.RowVersion,
	)
	if err != nil {
		return fmt.Errorf("insert demo: %w", err)
	}
	return nil
}

func (r *DemoRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Demo, error) {
	query := `SELECT ` + demoColumns + ` FROM demos WHERE id = $1`

	d, err := scanDemo(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find demo by id: %w", err)
	}
	return d, nil
}

func (r *DemoRepository) List(ctx context.Context, tenantID *uuid.UUID, filter domain.DemoFilter, page domain.Page) ([]*domain.Demo, error) {
	var (
		where []string
		args  []interface{}
	)

	if tenantID == nil {
		where = append(where, "tenant_id IS NULL")
	} else {
		args = append(args, *tenantID)
		where = append(where, "tenant_id = $"+strconv.Itoa(len(args)))
	}
	if !filter.IncludeDeleted {
		where = append(where, "is_deleted = false")
	}
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where = append(where, "name ILIKE $"+strconv.Itoa(len(args)))
	}

	limit := page.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	// Stable ordering keeps pagination deterministic.
	query := `SELECT ` + demoColumns + ` FROM demos WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY creation_time, id LIMIT $` + strconv.Itoa(len(args)-1) +
		` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list demos: %w", err)
	}
	defer rows.Close()

	var out []*domain.Demo
	for rows.Next() {
		d, err := scanDemo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan demo: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list demos: %w", err)
	}
	return out, nil
}

// Update applies mutable fields under optimistic concurrency: the write
// only lands when the stored row_version matches, which serializes
// concurrent updates to the same row at the storage layer.
func (r *DemoRepository) Update(ctx context.Context, d *domain.Demo) error {
	query := `
        UPDATE demos
        SET name = $1,
            last_modification_time = $2,
            last_modifier_id = $3,
            row_version = row_version + 1
        WHERE id = $4 AND row_version = $5 AND is_deleted = false
    `

	res, err := r.db.ExecContext(ctx, query,
		d.Name,
		nullTime(d.LastModificationTime),
		nullUUID(d.LastModifierID),
		d.ID,
		d.RowVersion,
	)
	if err != nil {
		return fmt.Errorf("update demo: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update demo: %w", err)
	}
	if affected == 0 {
		// Distinguish a version conflict from a missing/deleted row.
		existing, err := r.FindByID(ctx, d.ID)
		if err != nil {
			return err
		}
		if existing.IsDeleted {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}

	d.RowVersion++
	return nil
}

func (r *DemoRepository) MarkDeleted(ctx context.Context, id uuid.UUID, deleterID *uuid.UUID, at time.Time) error {
	query := `
        UPDATE demos
        SET is_deleted = true,
            deletion_time = $1,
            deleter_id = $2,
            row_version = row_version + 1
        WHERE id = $3 AND is_deleted = false
    `

	res, err := r.db.ExecContext(ctx, query, at, nullUUID(deleterID), id)
	if err != nil {
		return fmt.Errorf("soft delete demo: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete demo: %w", err)
	}
	if affected == 0 {
		// Deleting an already-deleted row is a no-op success; only a
		// truly absent row is an error.
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDemo(row rowScanner) (*domain.Demo, error) {
	var (
		d            domain.Demo
		tenantID     uuid.NullUUID
		creatorID    uuid.NullUUID
		modifierID   uuid.NullUUID
		deleterID    uuid.NullUUID
		modifiedAt   sql.NullTime
		deletionTime sql.NullTime
	)

	err := row.Scan(
		&d.ID,
		&d.Name,
		&tenantID,
		&d.CreationTime,
		&creatorID,
		&modifiedAt,
		&modifierID,
		&deletionTime,
		&deleterID,
		&d.IsDeleted,
		&d.RowVersion,
	)
	if err != nil {
		return nil, err
	}

	d.TenantID = fromNullUUID(tenantID)
	d.CreatorID = fromNullUUID(creatorID)
	d.LastModifierID = fromNullUUID(modifierID)
	d.DeleterID = fromNullUUID(deleterID)
	d.LastModificationTime = fromNullTime(modifiedAt)
	d.DeletionTime = fromNullTime(deletionTime)
	return &d, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func fromNullUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}
