package kpi

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/geonho/vocautobot-backend/internal/domain"
)

type mockSnapshotRepo struct {
	insertIfAbsentFn func(ctx context.Context, s domain.KpiSnapshot) (*domain.KpiSnapshot, bool, error)
	getByDateFn      func(ctx context.Context, date time.Time) (*domain.KpiSnapshot, error)
	findRangeFn      func(ctx context.Context, start, end time.Time) ([]*domain.KpiSnapshot, error)
}

func (m *mockSnapshotRepo) InsertIfAbsent(ctx context.Context, s domain.KpiSnapshot) (*domain.KpiSnapshot, bool, error) {
	return m.insertIfAbsentFn(ctx, s)
}

func (m *mockSnapshotRepo) GetByDate(ctx context.Context, date time.Time) (*domain.KpiSnapshot, error) {
	return m.getByDateFn(ctx, date)
}

func (m *mockSnapshotRepo) FindRange(ctx context.Context, start, end time.Time) ([]*domain.KpiSnapshot, error) {
	return m.findRangeFn(ctx, start, end)
}

type mockStatsRepo struct {
	countTotalFn      func(ctx context.Context) (int64, error)
	countProcessedFn  func(ctx context.Context) (int64, error)
	countSinceFn      func(ctx context.Context, since time.Time) (int64, error)
	avgResolutionFn   func(ctx context.Context) (float64, bool, error)
	countByCategoryFn func(ctx context.Context) (map[string]int64, error)
	countByPriorityFn func(ctx context.Context) (map[string]int64, error)
}

func (m *mockStatsRepo) CountTotal(ctx context.Context) (int64, error) {
	return m.countTotalFn(ctx)
}

func (m *mockStatsRepo) CountProcessed(ctx context.Context) (int64, error) {
	return m.countProcessedFn(ctx)
}

func (m *mockStatsRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return m.countSinceFn(ctx, since)
}

func (m *mockStatsRepo) AverageResolutionHours(ctx context.Context) (float64, bool, error) {
	return m.avgResolutionFn(ctx)
}

func (m *mockStatsRepo) CountByCategory(ctx context.Context) (map[string]int64, error) {
	return m.countByCategoryFn(ctx)
}

func (m *mockStatsRepo) CountByPriority(ctx context.Context) (map[string]int64, error) {
	return m.countByPriorityFn(ctx)
}

func healthyStats() *mockStatsRepo {
	return &mockStatsRepo{
		countTotalFn:     func(context.Context) (int64, error) { return 120, nil },
		countProcessedFn: func(context.Context) (int64, error) { return 80, nil },
		countSinceFn:     func(context.Context, time.Time) (int64, error) { return 7, nil },
		avgResolutionFn:  func(context.Context) (float64, bool, error) { return 26.5, true, nil },
		countByCategoryFn: func(context.Context) (map[string]int64, error) {
			return map[string]int64{"hardware": 60}, nil
		},
		countByPriorityFn: func(context.Context) (map[string]int64, error) {
			return map[string]int64{"NORMAL": 100}, nil
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fixedNow() time.Time {
	return time.Date(2026, 9, 1, 1, 0, 0, 0, time.UTC)
}

func TestCreateDailySnapshot(t *testing.T) {
	t.Parallel()

	var inserted domain.KpiSnapshot
	snapshots := &mockSnapshotRepo{
		insertIfAbsentFn: func(_ context.Context, s domain.KpiSnapshot) (*domain.KpiSnapshot, bool, error) {
			inserted = s
			s.ID = 1
			return &s, true, nil
		},
	}

	svc := NewService(testLogger(), snapshots, healthyStats())
	svc.now = fixedNow

	got, err := svc.CreateDailySnapshot(context.Background())
	if err != nil {
		t.Fatalf("CreateDailySnapshot: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("id = %d, want 1", got.ID)
	}

	wantDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !inserted.SnapshotDate.Equal(wantDate) {
		t.Errorf("snapshot date = %s, want %s", inserted.SnapshotDate, wantDate)
	}
	if inserted.TotalVocs != 120 || inserted.ResolvedVocs != 80 || inserted.TodayVocs != 7 {
		t.Errorf("counts = %d/%d/%d, want 120/80/7", inserted.TotalVocs, inserted.ResolvedVocs, inserted.TodayVocs)
	}
	if inserted.AvgResolutionHours == nil || *inserted.AvgResolutionHours != 26.5 {
		t.Errorf("avg = %v, want 26.5", inserted.AvgResolutionHours)
	}
	if inserted.CategoryStats["hardware"] != 60 {
		t.Errorf("category stats = %v, want hardware 60", inserted.CategoryStats)
	}
}

func TestCreateDailySnapshot_Idempotent(t *testing.T) {
	t.Parallel()

	existing := &domain.KpiSnapshot{ID: 9, TotalVocs: 50}
	inserts := 0
	snapshots := &mockSnapshotRepo{
		insertIfAbsentFn: func(_ context.Context, s domain.KpiSnapshot) (*domain.KpiSnapshot, bool, error) {
			inserts++
			if inserts == 1 {
				s.ID = 9
				s.TotalVocs = 50
				return &s, true, nil
			}
			return existing, false, nil
		},
	}

	svc := NewService(testLogger(), snapshots, healthyStats())
	svc.now = fixedNow

	first, err := svc.CreateDailySnapshot(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.CreateDailySnapshot(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("re-run returned a different snapshot: %d vs %d", first.ID, second.ID)
	}
	if second.TotalVocs != 50 {
		t.Errorf("re-run total = %d, existing row must be returned untouched", second.TotalVocs)
	}
}

func TestCreateDailySnapshot_StatsFailure(t *testing.T) {
	t.Parallel()

	stats := healthyStats()
	stats.countProcessedFn = func(context.Context) (int64, error) { return 0, errors.New("db down") }

	snapshots := &mockSnapshotRepo{
		insertIfAbsentFn: func(context.Context, domain.KpiSnapshot) (*domain.KpiSnapshot, bool, error) {
			t.Error("nothing should be written when stats fail")
			return nil, false, nil
		},
	}

	svc := NewService(testLogger(), snapshots, stats)
	svc.now = fixedNow

	_, err := svc.CreateDailySnapshot(context.Background())

	var failed *domain.SnapshotComputationFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want SnapshotComputationFailedError", err)
	}
	wantDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !failed.Date.Equal(wantDate) {
		t.Errorf("error date = %s, want %s", failed.Date, wantDate)
	}
}

func TestCreateDailySnapshot_StoreFailure(t *testing.T) {
	t.Parallel()

	snapshots := &mockSnapshotRepo{
		insertIfAbsentFn: func(context.Context, domain.KpiSnapshot) (*domain.KpiSnapshot, bool, error) {
			return nil, false, errors.New("disk full")
		},
	}

	svc := NewService(testLogger(), snapshots, healthyStats())
	svc.now = fixedNow

	var failed *domain.SnapshotComputationFailedError
	if _, err := svc.CreateDailySnapshot(context.Background()); !errors.As(err, &failed) {
		t.Fatalf("err = %v, want SnapshotComputationFailedError", err)
	}
}

func TestGetSnapshotTrend(t *testing.T) {
	t.Parallel()

	var gotStart, gotEnd time.Time
	snapshots := &mockSnapshotRepo{
		findRangeFn: func(_ context.Context, start, end time.Time) ([]*domain.KpiSnapshot, error) {
			gotStart, gotEnd = start, end
			return []*domain.KpiSnapshot{{ID: 1}, {ID: 2}}, nil
		},
	}

	svc := NewService(testLogger(), snapshots, healthyStats())
	svc.now = fixedNow

	trend, err := svc.GetSnapshotTrend(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetSnapshotTrend: %v", err)
	}
	if len(trend) != 2 {
		t.Errorf("trend length = %d, want 2", len(trend))
	}

	wantStart := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !gotStart.Equal(wantStart) || !gotEnd.Equal(wantEnd) {
		t.Errorf("range = [%s, %s], want [%s, %s]", gotStart, gotEnd, wantStart, wantEnd)
	}
}

func TestGetSnapshotTrend_InvalidDays(t *testing.T) {
	t.Parallel()

	svc := NewService(testLogger(), &mockSnapshotRepo{}, healthyStats())

	if _, err := svc.GetSnapshotTrend(context.Background(), 0); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}
