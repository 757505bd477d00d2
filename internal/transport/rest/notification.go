package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/geonho/vocautobot-backend/internal/domain"
)

type notificationService interface {
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, page domain.PageRequest) ([]*domain.Notification, int, error)
}

// NotificationHandler serves the current user's in-app notifications.
type NotificationHandler struct {
	notifications notificationService
	log           *slog.Logger
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(notifications notificationService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		log:           logger.With("handler", "notification"),
	}
}

type notificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	VocID     *uuid.UUID `json:"voc_id,omitempty"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

// List returns the caller's notifications, newest first.
// GET /api/v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	items, total, err := h.notifications.ListByUser(r.Context(), actor.UserID, pageFromQuery(r))
	if err != nil {
		h.log.ErrorContext(r.Context(), "list notifications", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}

	out := make([]notificationResponse, len(items))
	for i, n := range items {
		out[i] = notificationResponse{
			ID:        n.ID,
			Type:      string(n.Type),
			Title:     n.Title,
			Message:   n.Message,
			VocID:     n.VocID,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

// MarkRead marks one of the caller's notifications as read.
// PUT /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), actor.UserID, id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
