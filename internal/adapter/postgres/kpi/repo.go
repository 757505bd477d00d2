// Package kpi implements KPI snapshot persistence using PostgreSQL.
// Snapshots are immutable once created; at most one exists per calendar
// date, enforced by a unique index on snapshot_date.
package kpi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/geonho/vocautobot-backend/internal/adapter/postgres"
	"github.com/geonho/vocautobot-backend/internal/domain"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const snapshotColumns = `id, snapshot_date, total_vocs, today_vocs, resolved_vocs,
avg_resolution_hours, category_stats, priority_stats, created_at`

// Repo provides KPI snapshot persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new KPI snapshot repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// snapshotRow mirrors the kpi_daily_snapshot table for scany.
type snapshotRow struct {
	ID                 int64     `db:"id"`
	SnapshotDate       time.Time `db:"snapshot_date"`
	TotalVocs          int64     `db:"total_vocs"`
	TodayVocs          int64     `db:"today_vocs"`
	ResolvedVocs       int64     `db:"resolved_vocs"`
	AvgResolutionHours *float64  `db:"avg_resolution_hours"`
	CategoryStats      []byte    `db:"category_stats"`
	PriorityStats      []byte    `db:"priority_stats"`
	CreatedAt          time.Time `db:"created_at"`
}

func (r snapshotRow) toDomain() (*domain.KpiSnapshot, error) {
	s := &domain.KpiSnapshot{
		ID:                 r.ID,
		SnapshotDate:       r.SnapshotDate,
		TotalVocs:          r.TotalVocs,
		TodayVocs:          r.TodayVocs,
		ResolvedVocs:       r.ResolvedVocs,
		AvgResolutionHours: r.AvgResolutionHours,
		CreatedAt:          r.CreatedAt,
	}

	if len(r.CategoryStats) > 0 {
		if err := json.Unmarshal(r.CategoryStats, &s.CategoryStats); err != nil {
			return nil, fmt.Errorf("kpi_snapshot %d unmarshal category_stats: %w", r.ID, err)
		}
	}
	if len(r.PriorityStats) > 0 {
		if err := json.Unmarshal(r.PriorityStats, &s.PriorityStats); err != nil {
			return nil, fmt.Errorf("kpi_snapshot %d unmarshal priority_stats: %w", r.ID, err)
		}
	}

	return s, nil
}

// InsertIfAbsent persists a snapshot for its date unless one already exists.
// The write is a single conditional statement (ON CONFLICT DO NOTHING), so
// two concurrent invocations cannot both insert: the loser observes the
// conflict, fetches the winner's row, and reports created=false.
func (r *Repo) InsertIfAbsent(ctx context.Context, s domain.KpiSnapshot) (*domain.KpiSnapshot, bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	categoryJSON, err := json.Marshal(s.CategoryStats)
	if err != nil {
		return nil, false, fmt.Errorf("kpi_snapshot marshal category_stats: %w", err)
	}
	priorityJSON, err := json.Marshal(s.PriorityStats)
	if err != nil {
		return nil, false, fmt.Errorf("kpi_snapshot marshal priority_stats: %w", err)
	}

	sql, args, err := builder.
		Insert("kpi_daily_snapshot").
		Columns("snapshot_date", "total_vocs", "today_vocs", "resolved_vocs",
			"avg_resolution_hours", "category_stats", "priority_stats", "created_at").
		Values(s.SnapshotDate, s.TotalVocs, s.TodayVocs, s.ResolvedVocs,
			s.AvgResolutionHours, categoryJSON, priorityJSON, s.CreatedAt).
		Suffix("ON CONFLICT (snapshot_date) DO NOTHING RETURNING " + snapshotColumns).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("build insert kpi_snapshot: %w", err)
	}

	var row snapshotRow
	err = pgxscan.Get(ctx, q, &row, sql, args...)
	if err == nil {
		snapshot, convErr := row.toDomain()
		return snapshot, true, convErr
	}
	if !pgxscan.NotFound(err) {
		return nil, false, postgres.MapError(err, "kpi_snapshot", s.SnapshotDate.Format("2006-01-02"))
	}

	// Conflict: a snapshot for this date already exists. Return it unchanged.
	existing, err := r.GetByDate(ctx, s.SnapshotDate)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByDate returns the snapshot for a calendar date.
func (r *Repo) GetByDate(ctx context.Context, date time.Time) (*domain.KpiSnapshot, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Select(snapshotColumns).
		From("kpi_daily_snapshot").
		Where(sq.Eq{"snapshot_date": date}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get kpi_snapshot: %w", err)
	}

	var row snapshotRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "kpi_snapshot", date.Format("2006-01-02"))
	}
	return row.toDomain()
}

// FindRange returns snapshots with snapshot_date in [start, end] inclusive,
// ordered by date ascending.
func (r *Repo) FindRange(ctx context.Context, start, end time.Time) ([]*domain.KpiSnapshot, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := builder.
		Select(snapshotColumns).
		From("kpi_daily_snapshot").
		Where(sq.And{
			sq.GtOrEq{"snapshot_date": start},
			sq.LtOrEq{"snapshot_date": end},
		}).
		OrderBy("snapshot_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find kpi_snapshots: %w", err)
	}

	var rows []snapshotRow
	if err := pgxscan.Select(ctx, q, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("find kpi_snapshots: %w", err)
	}

	snapshots := make([]*domain.KpiSnapshot, len(rows))
	for i, row := range rows {
		s, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		snapshots[i] = s
	}
	return snapshots, nil
}
