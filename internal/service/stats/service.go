// Package stats provides on-demand VOC statistics. All numbers are computed
// from current data at call time; the KPI service persists frozen copies.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/geonho/vocautobot-backend/internal/domain"
)

type statsRepo interface {
	CountTotal(ctx context.Context) (int64, error)
	CountProcessed(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	AverageResolutionHours(ctx context.Context) (float64, bool, error)
	CountByDateRange(ctx context.Context, start, end time.Time) (map[string]int64, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
	CountByPriority(ctx context.Context) (map[string]int64, error)
}

// Service computes VOC statistics.
type Service struct {
	log  *slog.Logger
	repo statsRepo
	now  func() time.Time
}

// NewService creates a new statistics service.
func NewService(log *slog.Logger, repo statsRepo) *Service {
	return &Service{
		log:  log.With("service", "stats"),
		repo: repo,
		now:  time.Now,
	}
}

// Overview is the dashboard headline: corpus-wide counts plus today's
// intake. AvgResolutionHours is nil while no VOC has been resolved.
type Overview struct {
	TotalVocs          int64
	TodayVocs          int64
	ProcessedVocs      int64
	AvgResolutionHours *float64
	ByCategory         map[string]int64
	ByPriority         map[string]int64
}

// GetOverview computes the headline numbers in one pass.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	total, err := s.repo.CountTotal(ctx)
	if err != nil {
		return nil, err
	}
	processed, err := s.repo.CountProcessed(ctx)
	if err != nil {
		return nil, err
	}

	midnight := startOfDay(s.now().UTC())
	today, err := s.repo.CountSince(ctx, midnight)
	if err != nil {
		return nil, err
	}

	avg, ok, err := s.repo.AverageResolutionHours(ctx)
	if err != nil {
		return nil, err
	}
	var avgPtr *float64
	if ok {
		avgPtr = &avg
	}

	byCategory, err := s.repo.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.repo.CountByPriority(ctx)
	if err != nil {
		return nil, err
	}

	return &Overview{
		TotalVocs:          total,
		TodayVocs:          today,
		ProcessedVocs:      processed,
		AvgResolutionHours: avgPtr,
		ByCategory:         byCategory,
		ByPriority:         byPriority,
	}, nil
}

// GetDailyCounts returns one bucket per calendar date over the trailing
// window, zero-filled, keyed "2006-01-02". days must be positive.
func (s *Service) GetDailyCounts(ctx context.Context, days int) (map[string]int64, error) {
	if days <= 0 {
		return nil, domain.NewValidationError("days", "must be positive")
	}

	end := startOfDay(s.now().UTC())
	start := end.AddDate(0, 0, -(days - 1))
	return s.repo.CountByDateRange(ctx, start, end)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
