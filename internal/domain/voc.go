package domain

import (
	"time"

	"github.com/google/uuid"
)

// VocStatus represents the lifecycle state of a VOC record.
type VocStatus string

const (
	VocStatusNew        VocStatus = "NEW"
	VocStatusInProgress VocStatus = "IN_PROGRESS"
	VocStatusPending    VocStatus = "PENDING"
	VocStatusResolved   VocStatus = "RESOLVED"
	VocStatusClosed     VocStatus = "CLOSED"
	VocStatusRejected   VocStatus = "REJECTED"
)

func (s VocStatus) IsValid() bool {
	switch s {
	case VocStatusNew, VocStatusInProgress, VocStatusPending,
		VocStatusResolved, VocStatusClosed, VocStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status machine allows moving to next.
//
// Transition rules:
//   - NEW         -> IN_PROGRESS, RESOLVED, REJECTED
//   - IN_PROGRESS -> RESOLVED, REJECTED
//   - PENDING     -> RESOLVED, REJECTED (legacy compatibility)
//   - RESOLVED, CLOSED, REJECTED are terminal.
func (s VocStatus) CanTransitionTo(next VocStatus) bool {
	switch s {
	case VocStatusNew:
		return next == VocStatusInProgress || next == VocStatusResolved || next == VocStatusRejected
	case VocStatusInProgress:
		return next == VocStatusResolved || next == VocStatusRejected
	case VocStatusPending:
		return next == VocStatusResolved || next == VocStatusRejected
	default:
		return false
	}
}

// IsTerminal reports whether the status allows no further transitions.
func (s VocStatus) IsTerminal() bool {
	return s == VocStatusResolved || s == VocStatusClosed || s == VocStatusRejected
}

// VocPriority represents the handling priority of a VOC.
type VocPriority string

const (
	VocPriorityLow    VocPriority = "LOW"
	VocPriorityNormal VocPriority = "NORMAL"
	VocPriorityHigh   VocPriority = "HIGH"
	VocPriorityUrgent VocPriority = "URGENT"
)

func (p VocPriority) IsValid() bool {
	switch p {
	case VocPriorityLow, VocPriorityNormal, VocPriorityHigh, VocPriorityUrgent:
		return true
	}
	return false
}

// Voc is a single customer-submitted complaint record tracked through its
// lifecycle to resolution.
//
// Category and Priority are the authoritative, human-editable fields; the
// triage recommendation lives in a separate VocAnalysis row and is never
// applied to them automatically.
type Voc struct {
	ID            uuid.UUID
	TicketID      string
	Title         string
	Content       string
	Status        VocStatus
	Priority      VocPriority
	Category      *string
	CustomerEmail string
	CustomerName  *string
	AssigneeID    *uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	// ResolvedAt is set exactly once, on transition into RESOLVED or CLOSED.
	ResolvedAt *time.Time
}

// VocFilter narrows a VOC listing. All fields are optional and combined
// with AND semantics; a nil field matches everything. From/To bound
// created_at (inclusive from, exclusive to).
type VocFilter struct {
	Status     *VocStatus
	Priority   *VocPriority
	Category   *string
	AssigneeID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// IsAssigned reports whether the VOC has an assignee.
func (v *Voc) IsAssigned() bool { return v.AssigneeID != nil }

// IsResolved reports whether the VOC reached RESOLVED or CLOSED.
func (v *Voc) IsResolved() bool {
	return v.Status == VocStatusResolved || v.Status == VocStatusClosed
}

// Snapshot returns a stable field-name -> value view of the VOC used for
// audit before/after data. The same logical state always yields the same
// map, so diffs built on top are deterministic.
func (v *Voc) Snapshot() map[string]any {
	m := map[string]any{
		"ticket_id":      v.TicketID,
		"title":          v.Title,
		"content":        v.Content,
		"status":         string(v.Status),
		"priority":       string(v.Priority),
		"customer_email": v.CustomerEmail,
	}
	if v.Category != nil {
		m["category"] = *v.Category
	}
	if v.CustomerName != nil {
		m["customer_name"] = *v.CustomerName
	}
	if v.AssigneeID != nil {
		m["assignee_id"] = v.AssigneeID.String()
	}
	if v.ResolvedAt != nil {
		m["resolved_at"] = v.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return m
}
