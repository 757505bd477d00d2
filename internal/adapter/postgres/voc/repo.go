// Package voc implements the VOC repository using PostgreSQL.
// It provides lifecycle writes for VOC records and the separate
// recommendation attach path used by the triage engine.
package voc

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

const vocColumns = `id, ticket_id, title, content, status, priority, category,
customer_email, customer_name, assignee_id, created_at, updated_at, resolved_at`

// Repo provides VOC persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new VOC repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// vocRow mirrors the vocs table for scany.
type vocRow struct {
	ID            uuid.UUID  `db:"id"`
	TicketID      string     `db:"ticket_id"`
	Title         string     `db:"title"`
	Content       string     `db:"content"`
	Status        string     `db:"status"`
	Priority      string     `db:"priority"`
	Category      *string    `db:"category"`
	CustomerEmail string     `db:"customer_email"`
	CustomerName  *string    `db:"customer_name"`
	AssigneeID    *uuid.UUID `db:"assignee_id"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	ResolvedAt    *time.Time `db:"resolved_at"`
}

func (r vocRow) toDomain() *domain.Voc {
	return &domain.Voc{
		ID:            r.ID,
		TicketID:      r.TicketID,
		Title:         r.Title,
		Content:       r.Content,
		Status:        domain.VocStatus(r.Status),
		Priority:      domain.VocPriority(r.Priority),
		Category:      r.Category,
		CustomerEmail: r.CustomerEmail,
		CustomerName:  r.CustomerName,
		AssigneeID:    r.AssigneeID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		ResolvedAt:    r.ResolvedAt,
	}
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new VOC and returns the persisted record.
func (r *Repo) Create(ctx context.Context, v *domain.Voc) (*domain.Voc, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Insert("vocs").
		Columns("id", "ticket_id", "title", "content", "status", "priority",
			"category", "customer_email", "customer_name", "assignee_id",
			"created_at", "updated_at").
		Values(v.ID, v.TicketID, v.Title, v.Content, string(v.Status), string(v.Priority),
			v.Category, v.CustomerEmail, v.CustomerName, v.AssigneeID,
			v.CreatedAt, v.UpdatedAt).
		Suffix("RETURNING " + vocColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert voc: %w", err)
	}

	var row vocRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "voc", v.ID.String())
	}
	return row.toDomain(), nil
}

// Update persists the human-editable fields (title, content, category,
// priority). Status and recommendation go through their own paths.
func (r *Repo) Update(ctx context.Context, v *domain.Voc) (*domain.Voc, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Update("vocs").
		Set("title", v.Title).
		Set("content", v.Content).
		Set("category", v.Category).
		Set("priority", string(v.Priority)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": v.ID}).
		Suffix("RETURNING " + vocColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update voc: %w", err)
	}

	var row vocRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "voc", v.ID.String())
	}
	return row.toDomain(), nil
}

// UpdateStatus performs an atomic status transition guarded by the expected
// current status, so two concurrent transitions cannot both succeed.
// resolved_at is set only once: COALESCE keeps the first value.
// Returns domain.ErrConflict if the row was not in the expected status.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.VocStatus, resolvedAt *time.Time) (*domain.Voc, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Update("vocs").
		Set("status", string(to)).
		Set("resolved_at", sq.Expr("COALESCE(resolved_at, ?)", resolvedAt)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "status": string(from)}).
		Suffix("RETURNING " + vocColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update voc status: %w", err)
	}

	var row vocRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("voc %s: status is no longer %s: %w", id, from, domain.ErrConflict)
		}
		return nil, postgres.MapError(err, "voc", id.String())
	}
	return row.toDomain(), nil
}

// Assign sets the assignee. Bumping NEW to IN_PROGRESS is decided by the
// service; the repo just persists both fields.
func (r *Repo) Assign(ctx context.Context, id uuid.UUID, assigneeID *uuid.UUID, status domain.VocStatus) (*domain.Voc, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Update("vocs").
		Set("assignee_id", assigneeID).
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + vocColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assign voc: %w", err)
	}

	var row vocRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "voc", id.String())
	}
	return row.toDomain(), nil
}

// ---------------------------------------------------------------------------
// Recommendation attach (triage output, advisory only)
// ---------------------------------------------------------------------------

// AttachRecommendation upserts the triage recommendation for a VOC.
// Re-running analysis replaces the previous recommendation; the VOC's
// authoritative fields are untouched and no audit entry is written.
func (r *Repo) AttachRecommendation(ctx context.Context, res domain.AnalysisResult) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Insert("voc_analyses").
		Columns("voc_id", "category", "priority", "sentiment", "keywords",
			"summary", "confidence", "low_confidence", "analyzed_at").
		Values(res.VocID, res.Category, string(res.Priority), string(res.Sentiment), res.Keywords,
			res.Summary, res.Confidence, res.LowConfidence, res.AnalyzedAt).
		Suffix(`ON CONFLICT (voc_id) DO UPDATE SET
			category = EXCLUDED.category,
			priority = EXCLUDED.priority,
			sentiment = EXCLUDED.sentiment,
			keywords = EXCLUDED.keywords,
			summary = EXCLUDED.summary,
			confidence = EXCLUDED.confidence,
			low_confidence = EXCLUDED.low_confidence,
			analyzed_at = EXCLUDED.analyzed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build attach recommendation: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "voc_analysis", res.VocID.String())
	}
	return nil
}

// analysisRow mirrors the voc_analyses table for scany.
type analysisRow struct {
	VocID         uuid.UUID `db:"voc_id"`
	Category      string    `db:"category"`
	Priority      string    `db:"priority"`
	Sentiment     string    `db:"sentiment"`
	Keywords      []string  `db:"keywords"`
	Summary       string    `db:"summary"`
	Confidence    float64   `db:"confidence"`
	LowConfidence bool      `db:"low_confidence"`
	AnalyzedAt    time.Time `db:"analyzed_at"`
}

// GetRecommendation returns the current triage recommendation for a VOC.
// Returns domain.ErrNotFound if the VOC has not been analyzed yet.
func (r *Repo) GetRecommendation(ctx context.Context, vocID uuid.UUID) (*domain.AnalysisResult, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Select("voc_id", "category", "priority", "sentiment", "keywords",
			"summary", "confidence", "low_confidence", "analyzed_at").
		From("voc_analyses").
		Where(sq.Eq{"voc_id": vocID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get recommendation: %w", err)
	}

	var row analysisRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "voc_analysis", vocID.String())
	}

	return &domain.AnalysisResult{
		VocID:         row.VocID,
		Category:      row.Category,
		Priority:      domain.VocPriority(row.Priority),
		Sentiment:     domain.Sentiment(row.Sentiment),
		Keywords:      row.Keywords,
		Summary:       row.Summary,
		Confidence:    row.Confidence,
		LowConfidence: row.LowConfidence,
		AnalyzedAt:    row.AnalyzedAt,
	}, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a VOC by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Voc, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Select(vocColumns).
		From("vocs").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get voc: %w", err)
	}

	var row vocRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "voc", id.String())
	}
	return row.toDomain(), nil
}

// List returns VOCs matching the filter, newest first, with the total count
// of matching rows (pre-pagination).
func (r *Repo) List(ctx context.Context, f domain.VocFilter, page domain.PageRequest) ([]*domain.Voc, int, error) {
	page.Normalize()
	q := postgres.QuerierFromCtx(ctx, r.db)

	where := conditions(f)

	countSQL, countArgs, err := builder.
		Select("COUNT(*)").
		From("vocs").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count vocs: %w", err)
	}

	var total int
	if err := pgxscan.Get(ctx, q, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count vocs: %w", err)
	}

	listSQL, listArgs, err := builder.
		Select(vocColumns).
		From("vocs").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list vocs: %w", err)
	}

	var rows []vocRow
	if err := pgxscan.Select(ctx, q, &rows, listSQL, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list vocs: %w", err)
	}

	vocs := make([]*domain.Voc, len(rows))
	for i, row := range rows {
		vocs[i] = row.toDomain()
	}
	return vocs, total, nil
}

// conditions builds the AND-combined WHERE clause for the filter.
func conditions(f domain.VocFilter) sq.And {
	cond := sq.And{}
	if f.Status != nil {
		cond = append(cond, sq.Eq{"status": string(*f.Status)})
	}
	if f.Priority != nil {
		cond = append(cond, sq.Eq{"priority": string(*f.Priority)})
	}
	if f.Category != nil {
		cond = append(cond, sq.Eq{"category": *f.Category})
	}
	if f.AssigneeID != nil {
		cond = append(cond, sq.Eq{"assignee_id": *f.AssigneeID})
	}
	if f.From != nil {
		cond = append(cond, sq.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		cond = append(cond, sq.Lt{"created_at": *f.To})
	}
	if len(cond) == 0 {
		cond = append(cond, sq.Expr("TRUE"))
	}
	return cond
}
