// Package audit provides the append-only audit ledger over domain
// mutations. Entries record who changed what, with before/after snapshots;
// they are never updated or deleted.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/geonho/vocautobot-backend/internal/domain"
	"github.com/geonho/vocautobot-backend/pkg/ctxutil"
)

type ledgerRepo interface {
	Create(ctx context.Context, entry domain.AuditLogEntry) (domain.AuditLogEntry, error)
	Query(ctx context.Context, f domain.AuditFilter, page domain.PageRequest) ([]domain.AuditLogEntry, int, error)
}

// Service wraps the audit ledger repository.
type Service struct {
	log  *slog.Logger
	repo ledgerRepo
}

// NewService creates a new audit service.
func NewService(log *slog.Logger, repo ledgerRepo) *Service {
	return &Service{
		log:  log.With("service", "audit"),
		repo: repo,
	}
}

// Record appends one entry to the ledger. Callers run it inside the same
// transaction as the domain write, so a failed entry rolls the mutation
// back: the returned error wraps domain.AuditWriteFailedError and must not
// be swallowed.
func (s *Service) Record(ctx context.Context, actor domain.Actor, action domain.AuditAction,
	entityType domain.EntityType, entityID string, before, after map[string]any) (domain.AuditLogEntry, error) {

	if !action.IsValid() {
		return domain.AuditLogEntry{}, domain.NewValidationError("action", "unknown audit action")
	}

	entry := domain.AuditLogEntry{
		UserID:     actor.UserID,
		Username:   actor.Username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeData: before,
		AfterData:  after,
		IPAddress:  ctxutil.IPAddressFromCtx(ctx),
		UserAgent:  ctxutil.UserAgentFromCtx(ctx),
		CreatedAt:  time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return domain.AuditLogEntry{}, &domain.AuditWriteFailedError{
			EntityType: entityType,
			EntityID:   entityID,
			Err:        err,
		}
	}
	return created, nil
}

// Query returns ledger entries matching the filter, most recent first.
func (s *Service) Query(ctx context.Context, f domain.AuditFilter, page domain.PageRequest) ([]domain.AuditLogEntry, int, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, domain.NewValidationError("to", "must not precede from")
	}
	return s.repo.Query(ctx, f, page)
}
