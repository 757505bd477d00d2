package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies an in-app notification.
type NotificationType string

const (
	NotificationTypeVocAssigned   NotificationType = "VOC_ASSIGNED"
	NotificationTypeStatusChanged NotificationType = "STATUS_CHANGED"
)

// Notification is a per-user message emitted as a side effect of triage and
// status transitions. Read flips false -> true exactly once.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      NotificationType
	Title     string
	Message   string
	VocID     *uuid.UUID
	Read      bool
	CreatedAt time.Time
}
