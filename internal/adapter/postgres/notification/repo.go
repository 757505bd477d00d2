// Package notification implements in-app notification persistence using
// PostgreSQL.
package notification

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/geonho/vocautobot-backend/internal/adapter/postgres"
	"github.com/geonho/vocautobot-backend/internal/domain"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const notificationColumns = `id, user_id, type, title, message, voc_id, read, created_at`

// Repo provides notification persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new notification repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// notificationRow mirrors the notifications table for scany.
type notificationRow struct {
	ID        uuid.UUID  `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	Type      string     `db:"type"`
	Title     string     `db:"title"`
	Message   string     `db:"message"`
	VocID     *uuid.UUID `db:"voc_id"`
	Read      bool       `db:"read"`
	CreatedAt time.Time  `db:"created_at"`
}

func (r notificationRow) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      domain.NotificationType(r.Type),
		Title:     r.Title,
		Message:   r.Message,
		VocID:     r.VocID,
		Read:      r.Read,
		CreatedAt: r.CreatedAt,
	}
}

// Create inserts a new notification.
func (r *Repo) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Insert("notifications").
		Columns("id", "user_id", "type", "title", "message", "voc_id", "read", "created_at").
		Values(n.ID, n.UserID, string(n.Type), n.Title, n.Message, n.VocID, n.Read, n.CreatedAt).
		Suffix("RETURNING " + notificationColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert notification: %w", err)
	}

	var row notificationRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "notification", n.ID.String())
	}
	return row.toDomain(), nil
}

// MarkRead flips the read flag false -> true. Idempotent: marking an already
// read notification is a no-op success. Returns domain.ErrNotFound if the
// notification does not exist or belongs to another user.
func (r *Repo) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Update("notifications").
		Set("read", true).
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark notification read: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "notification", id.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListByUser returns notifications for a user, newest first, with pagination
// and the total count.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, page domain.PageRequest) ([]*domain.Notification, int, error) {
	page.Normalize()
	q := postgres.QuerierFromCtx(ctx, r.db)

	var total int
	err := pgxscan.Get(ctx, q, &total,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	sql, args, err := builder.
		Select(notificationColumns).
		From("notifications").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list notifications: %w", err)
	}

	var rows []notificationRow
	if err := pgxscan.Select(ctx, q, &rows, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}

	items := make([]*domain.Notification, len(rows))
	for i, row := range rows {
		items[i] = row.toDomain()
	}
	return items, total, nil
}
