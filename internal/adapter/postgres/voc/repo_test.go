package voc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/geonho/vocautobot-backend/internal/adapter/postgres/testutil"
	"github.com/geonho/vocautobot-backend/internal/domain"
)

var vocColumnNames = []string{
	"id", "ticket_id", "title", "content", "status", "priority", "category",
	"customer_email", "customer_name", "assignee_id", "created_at", "updated_at", "resolved_at",
}

func sampleVocRow(id uuid.UUID, now time.Time) []any {
	return []any{
		id, "VOC-20260901-000042", "Login broken", "Cannot sign in since this morning",
		"NEW", "NORMAL", nil, "jane@example.com", nil, nil, now, now, nil,
	}
}

func TestRepo_Create(t *testing.T) {
	vocID := uuid.New()
	now := time.Now()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "successful creation",
			setup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(vocColumnNames).AddRow(sampleVocRow(vocID, now)...)
				mock.ExpectQuery(`INSERT INTO vocs`).WillReturnRows(rows)
			},
		},
		{
			name: "duplicate ticket id",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO vocs`).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "vocs_ticket_id_key"})
			},
			wantErr: domain.ErrAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			querier, mock := testutil.NewMockQuerier(t)
			repo := New(querier)
			tt.setup(mock)

			got, err := repo.Create(context.Background(), &domain.Voc{
				ID:            vocID,
				TicketID:      "VOC-20260901-000042",
				Title:         "Login broken",
				Content:       "Cannot sign in since this morning",
				Status:        domain.VocStatusNew,
				Priority:      domain.VocPriorityNormal,
				CustomerEmail: "jane@example.com",
				CreatedAt:     now,
				UpdatedAt:     now,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if got.ID != vocID {
				t.Errorf("Create() id = %v, want %v", got.ID, vocID)
			}
			if got.Status != domain.VocStatusNew {
				t.Errorf("Create() status = %v, want %v", got.Status, domain.VocStatusNew)
			}
			if got.TicketID != "VOC-20260901-000042" {
				t.Errorf("Create() ticket_id = %q", got.TicketID)
			}
		})
	}
}

func TestRepo_UpdateStatus(t *testing.T) {
	vocID := uuid.New()
	now := time.Now()
	resolvedAt := now.Add(2 * time.Hour)

	t.Run("successful transition", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		rows := pgxmock.NewRows(vocColumnNames).AddRow(
			vocID, "VOC-20260901-000042", "Login broken", "Cannot sign in since this morning",
			"RESOLVED", "NORMAL", nil, "jane@example.com", nil, nil, now, now, &resolvedAt,
		)
		mock.ExpectQuery(`UPDATE vocs SET status`).
			WithArgs("RESOLVED", &resolvedAt, pgxmock.AnyArg(), vocID, "IN_PROGRESS").
			WillReturnRows(rows)

		got, err := repo.UpdateStatus(context.Background(), vocID,
			domain.VocStatusInProgress, domain.VocStatusResolved, &resolvedAt)
		if err != nil {
			t.Fatalf("UpdateStatus() error = %v", err)
		}
		if got.Status != domain.VocStatusResolved {
			t.Errorf("UpdateStatus() status = %v, want RESOLVED", got.Status)
		}
		if got.ResolvedAt == nil || !got.ResolvedAt.Equal(resolvedAt) {
			t.Errorf("UpdateStatus() resolved_at = %v, want %v", got.ResolvedAt, resolvedAt)
		}
	})

	t.Run("status changed underneath returns conflict", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		mock.ExpectQuery(`UPDATE vocs SET status`).WillReturnError(pgx.ErrNoRows)

		_, err := repo.UpdateStatus(context.Background(), vocID,
			domain.VocStatusInProgress, domain.VocStatusResolved, &resolvedAt)
		if !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("UpdateStatus() error = %v, want ErrConflict", err)
		}
	})
}

func TestRepo_GetByID(t *testing.T) {
	vocID := uuid.New()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		rows := pgxmock.NewRows(vocColumnNames).AddRow(sampleVocRow(vocID, now)...)
		mock.ExpectQuery(`SELECT .+ FROM vocs`).WithArgs(vocID).WillReturnRows(rows)

		got, err := repo.GetByID(context.Background(), vocID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.ID != vocID {
			t.Errorf("GetByID() id = %v, want %v", got.ID, vocID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		mock.ExpectQuery(`SELECT .+ FROM vocs`).WithArgs(vocID).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(context.Background(), vocID)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
		}
	})
}

func TestRepo_List(t *testing.T) {
	vocID := uuid.New()
	now := time.Now()

	t.Run("status filter with pagination", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vocs`).
			WithArgs("NEW").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))
		mock.ExpectQuery(`SELECT .+ FROM vocs .+ ORDER BY created_at DESC`).
			WithArgs("NEW").
			WillReturnRows(pgxmock.NewRows(vocColumnNames).AddRow(sampleVocRow(vocID, now)...))

		status := domain.VocStatusNew
		vocs, total, err := repo.List(context.Background(),
			domain.VocFilter{Status: &status}, domain.PageRequest{Limit: 10})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 7 {
			t.Errorf("List() total = %d, want 7", total)
		}
		if len(vocs) != 1 || vocs[0].ID != vocID {
			t.Errorf("List() vocs = %v", vocs)
		}
	})

	t.Run("empty filter matches everything", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM vocs`).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT .+ FROM vocs`).
			WillReturnRows(pgxmock.NewRows(vocColumnNames))

		vocs, total, err := repo.List(context.Background(), domain.VocFilter{}, domain.PageRequest{})
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if total != 0 || len(vocs) != 0 {
			t.Errorf("List() = %v, %d; want empty", vocs, total)
		}
	})
}

func TestRepo_AttachRecommendation(t *testing.T) {
	vocID := uuid.New()
	now := time.Now()

	t.Run("upsert succeeds", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		mock.ExpectExec(`INSERT INTO voc_analyses`).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.AttachRecommendation(context.Background(), domain.AnalysisResult{
			VocID:      vocID,
			Category:   "ACCOUNT",
			Priority:   domain.VocPriorityHigh,
			Sentiment:  domain.SentimentNegative,
			Keywords:   []string{"login", "error"},
			Summary:    "Customer cannot log in",
			Confidence: 0.91,
			AnalyzedAt: now,
		})
		if err != nil {
			t.Fatalf("AttachRecommendation() error = %v", err)
		}
	})

	t.Run("missing voc returns not found", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		mock.ExpectExec(`INSERT INTO voc_analyses`).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err := repo.AttachRecommendation(context.Background(), domain.AnalysisResult{VocID: vocID})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("AttachRecommendation() error = %v, want ErrNotFound", err)
		}
	})
}

func TestRepo_GetRecommendation(t *testing.T) {
	vocID := uuid.New()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		rows := pgxmock.NewRows([]string{
			"voc_id", "category", "priority", "sentiment", "keywords",
			"summary", "confidence", "low_confidence", "analyzed_at",
		}).AddRow(vocID, "ACCOUNT", "HIGH", "NEGATIVE", []string{"login"},
			"Customer cannot log in", 0.62, true, now)
		mock.ExpectQuery(`SELECT .+ FROM voc_analyses`).WithArgs(vocID).WillReturnRows(rows)

		got, err := repo.GetRecommendation(context.Background(), vocID)
		if err != nil {
			t.Fatalf("GetRecommendation() error = %v", err)
		}
		if got.Priority != domain.VocPriorityHigh {
			t.Errorf("GetRecommendation() priority = %v, want HIGH", got.Priority)
		}
		if !got.LowConfidence {
			t.Error("GetRecommendation() low_confidence = false, want true")
		}
	})

	t.Run("not analyzed yet", func(t *testing.T) {
		querier, mock := testutil.NewMockQuerier(t)
		repo := New(querier)

		mock.ExpectQuery(`SELECT .+ FROM voc_analyses`).WithArgs(vocID).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetRecommendation(context.Background(), vocID)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetRecommendation() error = %v, want ErrNotFound", err)
		}
	})
}
