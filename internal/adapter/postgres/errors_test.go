package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/geonho/vocautobot-backend/internal/domain"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, domain.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, domain.ErrAlreadyExists},
		{"fk violation", &pgconn.PgError{Code: "23503"}, domain.ErrNotFound},
		{"check violation", &pgconn.PgError{Code: "23514"}, domain.ErrValidation},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
		{"canceled", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err, "voc", "42")
			if tt.want == nil {
				if got != nil {
					t.Fatalf("MapError(nil) = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError(%v) = %v, want wrapped %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestMapError_UnknownErrorWrapped(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	got := MapError(cause, "voc", "42")
	if !errors.Is(got, cause) {
		t.Errorf("unknown errors should be wrapped, got %v", got)
	}
	if errors.Is(got, domain.ErrNotFound) {
		t.Error("unknown errors must not map to ErrNotFound")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	err := &pgconn.PgError{Code: "23505", ConstraintName: "kpi_daily_snapshot_snapshot_date_key"}

	if !IsUniqueViolation(err, "") {
		t.Error("any constraint should match with empty name")
	}
	if !IsUniqueViolation(err, "kpi_daily_snapshot_snapshot_date_key") {
		t.Error("matching constraint name should be detected")
	}
	if IsUniqueViolation(err, "other_constraint") {
		t.Error("different constraint name should not match")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Error("non-pg errors should not match")
	}
}
