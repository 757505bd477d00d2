// Package stats implements point-in-time aggregate queries over the VOC
// corpus. All operations are pure reads with read-committed semantics; the
// KPI service is the only component that persists their output.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/geonho/vocautobot-backend/internal/adapter/postgres"
)

// Repo computes VOC aggregates backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new statistics repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// CountTotal returns the number of VOCs in the corpus.
func (r *Repo) CountTotal(ctx context.Context) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var count int64
	if err := pgxscan.Get(ctx, q, &count, `SELECT COUNT(*) FROM vocs`); err != nil {
		return 0, fmt.Errorf("count total vocs: %w", err)
	}
	return count, nil
}

// CountProcessed returns the number of VOCs in RESOLVED or CLOSED status.
func (r *Repo) CountProcessed(ctx context.Context) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var count int64
	err := pgxscan.Get(ctx, q, &count,
		`SELECT COUNT(*) FROM vocs WHERE status IN ('RESOLVED', 'CLOSED')`)
	if err != nil {
		return 0, fmt.Errorf("count processed vocs: %w", err)
	}
	return count, nil
}

// CountSince returns the number of VOCs created at or after the given time.
func (r *Repo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var count int64
	err := pgxscan.Get(ctx, q, &count,
		`SELECT COUNT(*) FROM vocs WHERE created_at >= $1`, since)
	if err != nil {
		return 0, fmt.Errorf("count vocs since %s: %w", since, err)
	}
	return count, nil
}

// AverageResolutionHours returns the mean wall-clock resolution time in
// fractional hours over VOCs with resolved_at set. ok is false while no VOC
// has been resolved yet — "no data" is an expected steady state, not an
// error.
func (r *Repo) AverageResolutionHours(ctx context.Context) (avg float64, ok bool, err error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	row := struct {
		Avg   *float64 `db:"avg_hours"`
		Count int64    `db:"resolved_count"`
	}{}
	err = pgxscan.Get(ctx, q, &row, `
		SELECT AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 3600.0) AS avg_hours,
		       COUNT(*) AS resolved_count
		FROM vocs
		WHERE resolved_at IS NOT NULL`)
	if err != nil {
		return 0, false, fmt.Errorf("average resolution hours: %w", err)
	}

	if row.Count == 0 || row.Avg == nil {
		return 0, false, nil
	}
	return *row.Avg, true, nil
}

// CountByDateRange returns one bucket per calendar date in [start, end]
// inclusive, keyed "2006-01-02". Dates with no VOCs carry an explicit zero,
// so trend charts need no gap-filling.
func (r *Repo) CountByDateRange(ctx context.Context, start, end time.Time) (map[string]int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	startDay := start.Truncate(24 * time.Hour)
	endDay := end.Truncate(24 * time.Hour)
	if endDay.Before(startDay) {
		return nil, fmt.Errorf("count by date range: end %s before start %s", end, start)
	}

	var rows []struct {
		Day   time.Time `db:"day"`
		Count int64     `db:"cnt"`
	}
	err := pgxscan.Select(ctx, q, &rows, `
		SELECT DATE(created_at) AS day, COUNT(*) AS cnt
		FROM vocs
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)`,
		startDay, endDay.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("count vocs by date range: %w", err)
	}

	result := make(map[string]int64)
	for _, r := range rows {
		result[r.Day.Format("2006-01-02")] = r.Count
	}

	// Explicit zeros for dates with no VOCs.
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		if _, present := result[key]; !present {
			result[key] = 0
		}
	}

	return result, nil
}

// CountByCategory returns VOC counts grouped by category over the full
// corpus. Categories with zero count are omitted; VOCs without a category
// are not counted.
func (r *Repo) CountByCategory(ctx context.Context) (map[string]int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rows []struct {
		Category *string `db:"category"`
		Count    int64   `db:"cnt"`
	}
	err := pgxscan.Select(ctx, q, &rows, `
		SELECT category, COUNT(*) AS cnt
		FROM vocs
		GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count vocs by category: %w", err)
	}

	result := make(map[string]int64)
	for _, r := range rows {
		if r.Category != nil {
			result[*r.Category] = r.Count
		}
	}
	return result, nil
}

// CountByPriority returns VOC counts grouped by priority over the full
// corpus. Priorities with zero count are omitted; callers treat a missing
// key as zero.
func (r *Repo) CountByPriority(ctx context.Context) (map[string]int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var rows []struct {
		Priority string `db:"priority"`
		Count    int64  `db:"cnt"`
	}
	err := pgxscan.Select(ctx, q, &rows, `
		SELECT priority, COUNT(*) AS cnt
		FROM vocs
		GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("count vocs by priority: %w", err)
	}

	result := make(map[string]int64, len(rows))
	for _, r := range rows {
		result[r.Priority] = r.Count
	}
	return result, nil
}
