// Package kpi provides daily KPI snapshots: a frozen copy of the headline
// statistics, written once per calendar date, queryable as a trend.
package kpi

import (
	"context"
	"log/slog"
	"time"

	"github.com/geonho/vocautobot-backend/internal/domain"
)

type snapshotRepo interface {
	InsertIfAbsent(ctx context.Context, s domain.KpiSnapshot) (*domain.KpiSnapshot, bool, error)
	GetByDate(ctx context.Context, date time.Time) (*domain.KpiSnapshot, error)
	FindRange(ctx context.Context, start, end time.Time) ([]*domain.KpiSnapshot, error)
}

type statsRepo interface {
	CountTotal(ctx context.Context) (int64, error)
	CountProcessed(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	AverageResolutionHours(ctx context.Context) (float64, bool, error)
	CountByCategory(ctx context.Context) (map[string]int64, error)
	CountByPriority(ctx context.Context) (map[string]int64, error)
}

// Service computes and persists daily KPI snapshots.
type Service struct {
	log       *slog.Logger
	snapshots snapshotRepo
	stats     statsRepo
	now       func() time.Time
}

// NewService creates a new KPI service.
func NewService(log *slog.Logger, snapshots snapshotRepo, stats statsRepo) *Service {
	return &Service{
		log:       log.With("service", "kpi"),
		snapshots: snapshots,
		stats:     stats,
		now:       time.Now,
	}
}

// CreateDailySnapshot computes today's KPI numbers and persists them unless
// a snapshot for the date already exists, in which case the existing one is
// returned untouched. Safe to re-run and safe under concurrent invocation;
// the uniqueness guarantee lives in the store. A stats or store failure
// wraps domain.SnapshotComputationFailedError and writes nothing.
func (s *Service) CreateDailySnapshot(ctx context.Context) (*domain.KpiSnapshot, error) {
	date := startOfDay(s.now().UTC())

	computed, err := s.compute(ctx, date)
	if err != nil {
		return nil, &domain.SnapshotComputationFailedError{Date: date, Err: err}
	}

	snapshot, created, err := s.snapshots.InsertIfAbsent(ctx, *computed)
	if err != nil {
		return nil, &domain.SnapshotComputationFailedError{Date: date, Err: err}
	}

	if created {
		s.log.InfoContext(ctx, "kpi snapshot created",
			slog.String("date", date.Format("2006-01-02")),
			slog.Int64("total_vocs", snapshot.TotalVocs))
	} else {
		s.log.InfoContext(ctx, "kpi snapshot already exists, skipped",
			slog.String("date", date.Format("2006-01-02")))
	}

	return snapshot, nil
}

// compute gathers the numbers for one snapshot. All reads happen before any
// write, so nothing partial can land.
func (s *Service) compute(ctx context.Context, date time.Time) (*domain.KpiSnapshot, error) {
	total, err := s.stats.CountTotal(ctx)
	if err != nil {
		return nil, err
	}
	processed, err := s.stats.CountProcessed(ctx)
	if err != nil {
		return nil, err
	}
	today, err := s.stats.CountSince(ctx, date)
	if err != nil {
		return nil, err
	}

	avg, ok, err := s.stats.AverageResolutionHours(ctx)
	if err != nil {
		return nil, err
	}
	var avgPtr *float64
	if ok {
		avgPtr = &avg
	}

	byCategory, err := s.stats.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.stats.CountByPriority(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.KpiSnapshot{
		SnapshotDate:       date,
		TotalVocs:          total,
		TodayVocs:          today,
		ResolvedVocs:       processed,
		AvgResolutionHours: avgPtr,
		CategoryStats:      byCategory,
		PriorityStats:      byPriority,
		CreatedAt:          s.now().UTC(),
	}, nil
}

// GetSnapshot returns the snapshot for a calendar date.
func (s *Service) GetSnapshot(ctx context.Context, date time.Time) (*domain.KpiSnapshot, error) {
	return s.snapshots.GetByDate(ctx, startOfDay(date.UTC()))
}

// GetSnapshotTrend returns snapshots over the trailing window, oldest
// first. Dates without a snapshot are simply absent. days must be positive.
func (s *Service) GetSnapshotTrend(ctx context.Context, days int) ([]*domain.KpiSnapshot, error) {
	if days <= 0 {
		return nil, domain.NewValidationError("days", "must be positive")
	}

	end := startOfDay(s.now().UTC())
	start := end.AddDate(0, 0, -(days - 1))
	return s.snapshots.FindRange(ctx, start, end)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
