// Package app assembles the application: configuration, logging, database,
// repositories, services, background scheduler, and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/geonho/vocautobot-backend/internal/adapter/classifier/httpapi"
	"github.com/geonho/vocautobot-backend/internal/adapter/classifier/llm"
	"github.com/geonho/vocautobot-backend/internal/adapter/notifier"
	"github.com/geonho/vocautobot-backend/internal/adapter/postgres"
	auditrepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/audit"
	kpirepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/kpi"
	notificationrepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/notification"
	statsrepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/stats"
	vocrepo "github.com/geonho/vocautobot-backend/internal/adapter/postgres/voc"
	"github.com/geonho/vocautobot-backend/internal/config"
	"github.com/geonho/vocautobot-backend/internal/domain"
	"github.com/geonho/vocautobot-backend/internal/scheduler"
	auditsvc "github.com/geonho/vocautobot-backend/internal/service/audit"
	kpisvc "github.com/geonho/vocautobot-backend/internal/service/kpi"
	notificationsvc "github.com/geonho/vocautobot-backend/internal/service/notification"
	statssvc "github.com/geonho/vocautobot-backend/internal/service/stats"
	triagesvc "github.com/geonho/vocautobot-backend/internal/service/triage"
	vocsvc "github.com/geonho/vocautobot-backend/internal/service/voc"
	"github.com/geonho/vocautobot-backend/internal/transport/rest"
)

type classifier interface {
	Classify(ctx context.Context, title, content string, meta domain.Classification) (domain.Classification, error)
}

type alertSink interface {
	Send(ctx context.Context, title, text string) error
}

// Run is the application entry point. It wires everything together, starts
// the scheduler and HTTP server, and blocks until ctx is canceled, then
// shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	vocs := vocrepo.New(pool)
	audits := auditrepo.New(pool)
	stats := statsrepo.New(pool)
	snapshots := kpirepo.New(pool)
	notifications := notificationrepo.New(pool)

	cls, err := newClassifier(cfg.Classifier)
	if err != nil {
		return err
	}
	alerts := newAlertSink(logger, cfg.Slack)

	auditService := auditsvc.NewService(logger, audits)
	triageService := triagesvc.NewService(logger, cfg.Classifier, cls, vocs, alerts)
	vocService := vocsvc.NewService(logger, vocs, auditService, txManager, triageService, notifications, alerts)
	statsService := statssvc.NewService(logger, stats)
	kpiService := kpisvc.NewService(logger, snapshots, stats)
	notificationService := notificationsvc.NewService(logger, notifications)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(logger, cfg.Scheduler, kpiService)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	router := rest.NewRouter(logger, rest.Handlers{
		Health:        rest.NewHealthHandler(pool, BuildVersion()),
		Voc:           rest.NewVocHandler(vocService, triageService, logger),
		Audit:         rest.NewAuditHandler(auditService, logger),
		Stats:         rest.NewStatsHandler(statsService, logger),
		Kpi:           rest.NewKpiHandler(kpiService, logger),
		Notifications: rest.NewNotificationHandler(notificationService, logger),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

// newClassifier picks the triage backend from configuration.
func newClassifier(cfg config.ClassifierConfig) (classifier, error) {
	switch cfg.Backend {
	case "http":
		return httpapi.New(cfg), nil
	case "llm":
		return llm.New(cfg), nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Backend)
	}
}

// newAlertSink returns the Slack sink when a webhook is configured, the
// no-op sink otherwise.
func newAlertSink(logger *slog.Logger, cfg config.SlackConfig) alertSink {
	if cfg.WebhookURL == "" {
		return notifier.NewNoOp(logger)
	}
	return notifier.NewSlack(cfg)
}

// RunSnapshot computes today's KPI snapshot once and exits. Used by the
// standalone snapshot command; the HTTP server is not started.
func RunSnapshot(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	stats := statsrepo.New(pool)
	snapshots := kpirepo.New(pool)
	kpiService := kpisvc.NewService(logger, snapshots, stats)

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	snapshot, err := kpiService.CreateDailySnapshot(runCtx)
	if err != nil {
		return err
	}

	logger.Info("kpi snapshot done",
		slog.String("date", snapshot.SnapshotDate.Format("2006-01-02")),
		slog.Int64("total_vocs", snapshot.TotalVocs))
	return nil
}
