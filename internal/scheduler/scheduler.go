// Package scheduler runs periodic background jobs, currently the daily KPI
// snapshot. The snapshot itself is idempotent, so overlapping or repeated
// firings are harmless.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/geonho/vocautobot-backend/internal/config"
	"github.com/geonho/vocautobot-backend/internal/domain"
)

type snapshotter interface {
	CreateDailySnapshot(ctx context.Context) (*domain.KpiSnapshot, error)
}

// jobTimeout bounds one snapshot run.
const jobTimeout = 5 * time.Minute

// Scheduler owns the cron runner.
type Scheduler struct {
	log  *slog.Logger
	cron *cron.Cron
}

// New creates a scheduler with the snapshot job registered. The cron spec
// comes from configuration; jobs run in UTC so the snapshot date matches
// the statistics windows.
func New(log *slog.Logger, cfg config.SchedulerConfig, kpi snapshotter) (*Scheduler, error) {
	log = log.With("component", "scheduler")

	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(cfg.SnapshotCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		snapshot, err := kpi.CreateDailySnapshot(ctx)
		if err != nil {
			log.Error("daily kpi snapshot failed", slog.String("error", err.Error()))
			return
		}
		log.Info("daily kpi snapshot done",
			slog.String("date", snapshot.SnapshotDate.Format("2006-01-02")))
	})
	if err != nil {
		return nil, fmt.Errorf("register snapshot job %q: %w", cfg.SnapshotCron, err)
	}

	return &Scheduler{log: log, cron: c}, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started")
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}
