package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/tenant-gateway/internal/adapter/metrics"
	"github.com/user/tenant-gateway/internal/adapter/repository/spool"
	"github.com/user/tenant-gateway/internal/domain"
)

// AuditService persists audit records, spooling to local disk while the
// store is unreachable. It implements AuditUseCase.
type AuditService struct {
	store  domain.AuditRepository
	spool  *spool.AuditSpool
	logger *slog.Logger
	m      *metrics.GatewayMetrics
}

// NewAuditService creates the audit recorder. The spool is optional;
// without it an unreachable store only logs the loss.
func NewAuditService(store domain.AuditRepository, sp *spool.AuditSpool, logger *slog.Logger, m *metrics.GatewayMetrics) *AuditService {
	return &AuditService{
		store:  store,
		spool:  sp,
		logger: logger.With("component", "audit_service"),
		m:      m,
	}
}

// Record persists the audit record. It never fails the request being
// audited.
func (s *AuditService) Record(ctx context.Context, rec *domain.AuditRecord) {
	err := s.store.Store(ctx, rec)
	if err == nil {
		return
	}

	if s.spool == nil {
		s.logger.Error("audit record lost, store unreachable and no spool configured", "error", err)
		return
	}

	s.logger.Warn("audit store unreachable, spooling record", "error", err)
	if s.m != nil {
		s.m.AuditSpoolActive.Set(1)
	}
	if err := s.spool.Write(ctx, rec); err != nil {
		s.logger.Error("audit record lost, spool write failed", "error", err)
	}
}

// StartReplayLoop periodically drains the spool back into the store once
// it recovers. It blocks until ctx is cancelled.
func (s *AuditService) StartReplayLoop(ctx context.Context, interval time.Duration) {
	if s.spool == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.spool.Pending() {
				continue
			}
			err := s.spool.Replay(ctx, func(rec *domain.AuditRecord) error {
				return s.store.Store(ctx, rec)
			})
			if err != nil {
				s.logger.Warn("audit spool replay failed, will retry", "error", err)
				continue
			}
			if s.m != nil {
				s.m.AuditSpoolActive.Set(0)
			}
		}
	}
}
