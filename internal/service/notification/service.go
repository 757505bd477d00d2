// Package notification provides read access to in-app notifications.
package notification

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/geonho/vocautobot-backend/internal/domain"
)

type notificationRepo interface {
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, page domain.PageRequest) ([]*domain.Notification, int, error)
}

// Service wraps the notification repository.
type Service struct {
	log  *slog.Logger
	repo notificationRepo
}

// NewService creates a new notification service.
func NewService(log *slog.Logger, repo notificationRepo) *Service {
	return &Service{
		log:  log.With("service", "notification"),
		repo: repo,
	}
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// ListByUser returns the user's notifications, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, page domain.PageRequest) ([]*domain.Notification, int, error) {
	return s.repo.ListByUser(ctx, userID, page)
}
