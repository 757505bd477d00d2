package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/geonho/vocautobot-backend/internal/adapter/postgres/testutil"
	"github.com/geonho/vocautobot-backend/internal/domain"
)

var notificationColumnNames = []string{
	"id", "user_id", "type", "title", "message", "voc_id", "read", "created_at",
}

func TestRepo_Create(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()
	vocID := uuid.New()
	now := time.Now()

	querier, mock := testutil.NewMockQuerier(t)
	repo := New(querier)

	rows := pgxmock.NewRows(notificationColumnNames).AddRow(
		id, userID, "VOC_ASSIGNED", "VOC assigned to you", "Ticket VOC-20260901-000042", &vocID, false, now,
	)
	mock.ExpectQuery(`INSERT INTO notifications`).WillReturnRows(rows)

	got, err := repo.Create(context.Background(), &domain.Notification{
		ID:        id,
		UserID:    userID,
		Type:      domain.NotificationTypeVocAssigned,
		Title:     "VOC assigned to you",
		Message:   "Ticket VOC-20260901-000042",
		VocID:     &vocID,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.ID != id || got.Type != domain.NotificationTypeVocAssigned {
		t.Errorf("Create() = %+v", got)
	}
	if got.Read {
		t.Error("Create() read = true, want false")
	}
}

func TestRepo_MarkRead(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "marks unread notification",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE notifications SET read`).
					WithArgs(true, id, userID).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "unknown or foreign notification",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`UPDATE notifications SET read`).
					WithArgs(true, id, userID).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			querier, mock := testutil.NewMockQuerier(t)
			repo := New(querier)
			tt.setup(mock)

			err := repo.MarkRead(context.Background(), userID, id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("MarkRead() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MarkRead() error = %v", err)
			}
		})
	}
}

func TestRepo_ListByUser(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	querier, mock := testutil.NewMockQuerier(t)
	repo := New(querier)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT .+ FROM notifications .+ ORDER BY created_at DESC`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows(notificationColumnNames).
			AddRow(uuid.New(), userID, "VOC_ASSIGNED", "t1", "", nil, false, now).
			AddRow(uuid.New(), userID, "STATUS_CHANGED", "t2", "", nil, true, now.Add(-time.Hour)))

	items, total, err := repo.ListByUser(context.Background(), userID, domain.PageRequest{Limit: 20})
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if total != 12 {
		t.Errorf("ListByUser() total = %d, want 12", total)
	}
	if len(items) != 2 {
		t.Fatalf("ListByUser() len = %d, want 2", len(items))
	}
	if items[1].Type != domain.NotificationTypeStatusChanged || !items[1].Read {
		t.Errorf("ListByUser() item = %+v", items[1])
	}
}
