package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// ClassificationUnavailableError is returned by the triage engine when the
// classifier did not produce a usable result within the configured budget
// (timeout, transport failure, or an invalid response after the retry).
// It carries the context needed for observability; the VOC write path is
// never failed by it.
type ClassificationUnavailableError struct {
	VocID   string
	Elapsed time.Duration
	Err     error
}

func (e *ClassificationUnavailableError) Error() string {
	return fmt.Sprintf("classification unavailable for voc %s after %s: %v", e.VocID, e.Elapsed, e.Err)
}

func (e *ClassificationUnavailableError) Unwrap() error { return e.Err }

// AuditWriteFailedError is returned when an audit entry cannot be persisted.
// Callers must treat it as fatal for the enclosing mutation: a domain change
// without an audit trail violates the compliance guarantee.
type AuditWriteFailedError struct {
	EntityType EntityType
	EntityID   string
	Err        error
}

func (e *AuditWriteFailedError) Error() string {
	return fmt.Sprintf("audit write failed for %s %s: %v", e.EntityType, e.EntityID, e.Err)
}

func (e *AuditWriteFailedError) Unwrap() error { return e.Err }

// SnapshotComputationFailedError is returned when the daily KPI snapshot
// cannot be computed or persisted. A snapshot is all-or-nothing; no partial
// row is written.
type SnapshotComputationFailedError struct {
	Date time.Time
	Err  error
}

func (e *SnapshotComputationFailedError) Error() string {
	return fmt.Sprintf("kpi snapshot for %s failed: %v", e.Date.Format("2006-01-02"), e.Err)
}

func (e *SnapshotComputationFailedError) Unwrap() error { return e.Err }
