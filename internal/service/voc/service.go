// Package voc provides the VOC lifecycle: intake, edits, status
// transitions, and assignment. Every mutation commits atomically with its
// audit entry; triage runs asynchronously after intake.
package voc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/geonho/vocautobot-backend/internal/domain"
)

// ticketAttempts bounds retries on ticket id collisions. Six random digits
// per day make collisions rare; three tries is plenty.
const ticketAttempts = 3

type vocRepo interface {
	Create(ctx context.Context, v *domain.Voc) (*domain.Voc, error)
	Update(ctx context.Context, v *domain.Voc) (*domain.Voc, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.VocStatus, resolvedAt *time.Time) (*domain.Voc, error)
	Assign(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID, status domain.VocStatus) (*domain.Voc, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Voc, error)
	List(ctx context.Context, f domain.VocFilter, page domain.PageRequest) ([]*domain.Voc, int, error)
}

type auditRecorder interface {
	Record(ctx context.Context, actor domain.Actor, action domain.AuditAction,
		entityType domain.EntityType, entityID string, before, after map[string]any) (domain.AuditLogEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type triageEngine interface {
	Analyze(ctx context.Context, voc *domain.Voc) (*domain.AnalysisResult, error)
}

type notificationStore interface {
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
}

type alertSink interface {
	Send(ctx context.Context, title, text string) error
}

// Service wraps the VOC repository with lifecycle business logic.
type Service struct {
	log           *slog.Logger
	repo          vocRepo
	audit         auditRecorder
	tx            txManager
	triage        triageEngine
	notifications notificationStore
	alerts        alertSink

	// triageTimeout bounds the detached post-intake analysis.
	triageTimeout time.Duration
}

// NewService creates a new VOC service.
func NewService(log *slog.Logger, repo vocRepo, audit auditRecorder, tx txManager,
	triage triageEngine, notifications notificationStore, alerts alertSink) *Service {
	return &Service{
		log:           log.With("service", "voc"),
		repo:          repo,
		audit:         audit,
		tx:            tx,
		triage:        triage,
		notifications: notifications,
		alerts:        alerts,
		triageTimeout: time.Minute,
	}
}

// CreateInput is the intake payload for a new VOC.
type CreateInput struct {
	Title         string
	Content       string
	Priority      domain.VocPriority
	Category      *string
	CustomerEmail string
	CustomerName  *string
}

func (in CreateInput) validate() error {
	ve := &domain.ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		ve.Errors = append(ve.Errors, domain.FieldError{Field: "title", Message: "must not be empty"})
	}
	if strings.TrimSpace(in.Content) == "" {
		ve.Errors = append(ve.Errors, domain.FieldError{Field: "content", Message: "must not be empty"})
	}
	if !strings.Contains(in.CustomerEmail, "@") {
		ve.Errors = append(ve.Errors, domain.FieldError{Field: "customer_email", Message: "must be an email address"})
	}
	if in.Priority != "" && !in.Priority.IsValid() {
		ve.Errors = append(ve.Errors, domain.FieldError{Field: "priority", Message: "unknown priority"})
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// Create registers a new VOC in NEW status, writes the CREATE audit entry in
// the same transaction, and kicks off triage in the background. The create
// succeeds even if triage later fails.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*domain.Voc, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.VocPriorityNormal
	}

	now := time.Now().UTC()
	var created *domain.Voc

	// Ticket ids carry a random suffix; retry on the rare collision.
	var err error
	for attempt := 0; attempt < ticketAttempts; attempt++ {
		voc := &domain.Voc{
			ID:            uuid.New(),
			TicketID:      generateTicketID(now),
			Title:         strings.TrimSpace(in.Title),
			Content:       in.Content,
			Status:        domain.VocStatusNew,
			Priority:      priority,
			Category:      in.Category,
			CustomerEmail: in.CustomerEmail,
			CustomerName:  in.CustomerName,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			var txErr error
			created, txErr = s.repo.Create(txCtx, voc)
			if txErr != nil {
				return txErr
			}
			_, txErr = s.audit.Record(txCtx, actor, domain.AuditActionCreate,
				domain.EntityTypeVoc, created.ID.String(), nil, created.Snapshot())
			return txErr
		})
		if !errors.Is(err, domain.ErrAlreadyExists) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "voc created",
		slog.String("voc_id", created.ID.String()),
		slog.String("ticket_id", created.TicketID))

	go s.runTriage(created)

	return created, nil
}

// runTriage analyzes a freshly created VOC detached from the request. When
// analysis fails the VOC stays valid and untriaged; operators hear about it
// through the alert sink instead.
func (s *Service) runTriage(voc *domain.Voc) {
	ctx, cancel := context.WithTimeout(context.Background(), s.triageTimeout)
	defer cancel()

	if _, err := s.triage.Analyze(ctx, voc); err != nil {
		s.log.Warn("post-intake triage failed",
			slog.String("voc_id", voc.ID.String()),
			slog.String("error", err.Error()))

		title := fmt.Sprintf("VOC %s created without analysis", voc.TicketID)
		if alertErr := s.alerts.Send(ctx, title, err.Error()); alertErr != nil {
			s.log.Warn("triage failure alert failed",
				slog.String("voc_id", voc.ID.String()),
				slog.String("error", alertErr.Error()))
		}
	}
}

// UpdateInput is the edit payload for an existing VOC. Nil fields keep their
// current value.
type UpdateInput struct {
	Title    *string
	Content  *string
	Category *string
	Priority *domain.VocPriority
}

// Update edits the human-editable fields and writes the UPDATE audit entry
// in the same transaction.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in UpdateInput) (*domain.Voc, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := current.Snapshot()

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, domain.NewValidationError("title", "must not be empty")
		}
		current.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, domain.NewValidationError("content", "must not be empty")
		}
		current.Content = *in.Content
	}
	if in.Category != nil {
		current.Category = in.Category
	}
	if in.Priority != nil {
		if !in.Priority.IsValid() {
			return nil, domain.NewValidationError("priority", "unknown priority")
		}
		current.Priority = *in.Priority
	}

	var updated *domain.Voc
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		updated, txErr = s.repo.Update(txCtx, current)
		if txErr != nil {
			return txErr
		}
		_, txErr = s.audit.Record(txCtx, actor, domain.AuditActionUpdate,
			domain.EntityTypeVoc, updated.ID.String(), before, updated.Snapshot())
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateStatus transitions a VOC through its status machine and writes the
// STATUS_CHANGE audit entry in the same transaction. resolved_at is stamped
// on the first transition into RESOLVED or CLOSED and never overwritten.
func (s *Service) UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, next domain.VocStatus) (*domain.Voc, error) {
	if !next.IsValid() {
		return nil, domain.NewValidationError("status", "unknown status")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("voc %s: transition %s -> %s not allowed: %w",
			id, current.Status, next, domain.ErrConflict)
	}
	before := current.Snapshot()

	var resolvedAt *time.Time
	if next == domain.VocStatusResolved || next == domain.VocStatusClosed {
		now := time.Now().UTC()
		resolvedAt = &now
	}

	var updated *domain.Voc
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		updated, txErr = s.repo.UpdateStatus(txCtx, id, current.Status, next, resolvedAt)
		if txErr != nil {
			return txErr
		}
		_, txErr = s.audit.Record(txCtx, actor, domain.AuditActionStatusChange,
			domain.EntityTypeVoc, updated.ID.String(), before, updated.Snapshot())
		return txErr
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "voc status changed",
		slog.String("voc_id", id.String()),
		slog.String("from", string(current.Status)),
		slog.String("to", string(next)))

	s.notifyStatusChanged(ctx, current.Status, updated)

	return updated, nil
}

// notifyStatusChanged fans the committed transition out, best effort: an
// in-app notification for the assignee (when there is one) and a message on
// the outbound alert sink. Neither failure propagates.
func (s *Service) notifyStatusChanged(ctx context.Context, from domain.VocStatus, voc *domain.Voc) {
	if voc.AssigneeID != nil {
		_, err := s.notifications.Create(ctx, &domain.Notification{
			ID:        uuid.New(),
			UserID:    *voc.AssigneeID,
			Type:      domain.NotificationTypeStatusChanged,
			Title:     "VOC status changed",
			Message:   fmt.Sprintf("%s: %s -> %s", voc.TicketID, from, voc.Status),
			VocID:     &voc.ID,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			s.log.WarnContext(ctx, "status change notification failed",
				slog.String("voc_id", voc.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	title := fmt.Sprintf("VOC %s status changed", voc.TicketID)
	text := fmt.Sprintf("%s: %s -> %s", voc.Title, from, voc.Status)
	if err := s.alerts.Send(ctx, title, text); err != nil {
		s.log.WarnContext(ctx, "status change alert failed",
			slog.String("voc_id", voc.ID.String()),
			slog.String("error", err.Error()))
	}
}

// Assign sets or clears the assignee and writes the ASSIGN audit entry in
// the same transaction. Assigning a NEW VOC bumps it to IN_PROGRESS. The
// assignee gets an in-app notification, best effort.
func (s *Service) Assign(ctx context.Context, actor domain.Actor, id uuid.UUID, assigneeID *uuid.UUID) (*domain.Voc, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, fmt.Errorf("voc %s: cannot assign in terminal status %s: %w",
			id, current.Status, domain.ErrConflict)
	}
	before := current.Snapshot()

	status := current.Status
	if status == domain.VocStatusNew && assigneeID != nil {
		status = domain.VocStatusInProgress
	}

	var updated *domain.Voc
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		updated, txErr = s.repo.Assign(txCtx, id, assigneeID, status)
		if txErr != nil {
			return txErr
		}
		_, txErr = s.audit.Record(txCtx, actor, domain.AuditActionAssign,
			domain.EntityTypeVoc, updated.ID.String(), before, updated.Snapshot())
		return txErr
	})
	if err != nil {
		return nil, err
	}

	if assigneeID != nil {
		s.notifyAssignee(ctx, *assigneeID, updated)
	}

	return updated, nil
}

func (s *Service) notifyAssignee(ctx context.Context, assigneeID uuid.UUID, voc *domain.Voc) {
	_, err := s.notifications.Create(ctx, &domain.Notification{
		ID:        uuid.New(),
		UserID:    assigneeID,
		Type:      domain.NotificationTypeVocAssigned,
		Title:     "VOC assigned to you",
		Message:   fmt.Sprintf("%s: %s", voc.TicketID, voc.Title),
		VocID:     &voc.ID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.WarnContext(ctx, "assignee notification failed",
			slog.String("voc_id", voc.ID.String()),
			slog.String("error", err.Error()))
	}
}

// Get returns a VOC by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Voc, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns VOCs matching the filter, newest first, with the total count.
func (s *Service) List(ctx context.Context, f domain.VocFilter, page domain.PageRequest) ([]*domain.Voc, int, error) {
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, 0, domain.NewValidationError("to", "must not precede from")
	}
	return s.repo.List(ctx, f, page)
}

// generateTicketID builds a human-readable ticket id like
// VOC-20260901-483920.
func generateTicketID(now time.Time) string {
	return fmt.Sprintf("VOC-%s-%06d", now.Format("20060102"), rand.IntN(1_000_000))
}
