package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/user/tenant-gateway/internal/domain"
)

// AuditRepository implements domain.AuditRepository on PostgreSQL.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Store inserts one audit record. The insert ignores an existing row
// with the same id, so replaying a spooled record that already landed is
// a no-op instead of a constraint violation.
func (r *AuditRepository) Store(ctx context.Context, rec *domain.AuditRecord) error {
	query := `
        INSERT INTO audit_records (
            id, correlation_id, method, path, query, status_code,
            user_id, tenant_id, client_ip, duration_ms, executed_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (id) DO NOTHING
    `

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.CorrelationID,
		rec.Method,
		rec.Path,
		rec.Query,
		rec.StatusCode,
		nullUUID(rec.UserID),
		nullUUID(rec.TenantID),
		rec.ClientIP,
		rec.DurationMS,
		rec.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: store audit record: %v", domain.ErrUnavailable, err)
	}
	return nil
}
