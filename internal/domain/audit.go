package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the kind of mutation an audit entry records.
type AuditAction string

const (
	AuditActionCreate       AuditAction = "CREATE"
	AuditActionUpdate       AuditAction = "UPDATE"
	AuditActionDelete       AuditAction = "DELETE"
	AuditActionStatusChange AuditAction = "STATUS_CHANGE"
	AuditActionAssign       AuditAction = "ASSIGN"
	AuditActionLogin        AuditAction = "LOGIN"
)

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete,
		AuditActionStatusChange, AuditActionAssign, AuditActionLogin:
		return true
	}
	return false
}

// EntityType identifies the aggregate an audit entry refers to.
type EntityType string

const (
	EntityTypeVoc EntityType = "VOC"
)

// Actor is a point-in-time snapshot of who performed a mutation. Username is
// copied at write time, not referenced, so the entry survives user deletion
// or renaming.
type Actor struct {
	UserID   uuid.UUID
	Username string
}

// AuditLogEntry is one immutable record in the append-only audit ledger.
// ID is a monotonically increasing ordering key assigned by the store.
// BeforeData is nil for CREATE, AfterData is nil for DELETE; both are set
// for UPDATE/STATUS_CHANGE/ASSIGN.
type AuditLogEntry struct {
	ID         int64
	UserID     uuid.UUID
	Username   string
	Action     AuditAction
	EntityType EntityType
	EntityID   string
	BeforeData map[string]any
	AfterData  map[string]any
	IPAddress  string
	UserAgent  string
	CreatedAt  time.Time
}

// AuditFilter narrows an audit query. All fields are optional and combined
// with AND semantics; a nil field matches everything.
type AuditFilter struct {
	UserID     *uuid.UUID
	Action     *AuditAction
	EntityType *EntityType
	EntityID   *string
	From       *time.Time
	To         *time.Time
}

// PageRequest is offset/limit pagination for unbounded result sets.
type PageRequest struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Normalize applies defaults and clamps the limit.
func (p *PageRequest) Normalize() {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
