package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditRecord captures one handled API request for the audit trail.
type AuditRecord struct {
	ID            uuid.UUID  `json:"id"`
	CorrelationID string     `json:"correlation_id"`
	Method        string     `json:"method"`
	Path          string     `json:"path"`
	Query         string     `json:"query,omitempty"`
	StatusCode    int        `json:"status_code"`
	UserID        *uuid.UUID `json:"user_id,omitempty"`
	TenantID      *uuid.UUID `json:"tenant_id,omitempty"`
	ClientIP      string     `json:"client_ip,omitempty"`
	DurationMS    int64      `json:"duration_ms"`
	ExecutedAt    time.Time  `json:"executed_at"`
}

// AuditRepository persists audit records.
type AuditRepository interface {
	Store(ctx context.Context, rec *AuditRecord) error
}
