package rest

import (
	"log/slog"
	"net/http"

	"github.com/geonho/vocautobot-backend/internal/transport/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health        *HealthHandler
	Voc           *VocHandler
	Audit         *AuditHandler
	Stats         *StatsHandler
	Kpi           *KpiHandler
	Notifications *NotificationHandler
}

// NewRouter mounts all endpoints behind the standard middleware chain.
func NewRouter(logger *slog.Logger, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	mux.HandleFunc("POST /api/v1/vocs", h.Voc.Create)
	mux.HandleFunc("GET /api/v1/vocs", h.Voc.List)
	mux.HandleFunc("GET /api/v1/vocs/{id}", h.Voc.Get)
	mux.HandleFunc("PATCH /api/v1/vocs/{id}", h.Voc.Update)
	mux.HandleFunc("PUT /api/v1/vocs/{id}/status", h.Voc.UpdateStatus)
	mux.HandleFunc("PUT /api/v1/vocs/{id}/assignee", h.Voc.Assign)
	mux.HandleFunc("GET /api/v1/vocs/{id}/recommendation", h.Voc.GetRecommendation)
	mux.HandleFunc("POST /api/v1/vocs/{id}/analyze", h.Voc.Analyze)

	mux.HandleFunc("GET /api/v1/audit-logs", h.Audit.Query)

	mux.HandleFunc("GET /api/v1/statistics/overview", h.Stats.Overview)
	mux.HandleFunc("GET /api/v1/statistics/daily", h.Stats.Daily)

	mux.HandleFunc("GET /api/v1/kpi/snapshots", h.Kpi.Trend)
	mux.HandleFunc("POST /api/v1/kpi/snapshots", h.Kpi.Create)
	mux.HandleFunc("GET /api/v1/kpi/snapshots/{date}", h.Kpi.Get)

	mux.HandleFunc("GET /api/v1/notifications", h.Notifications.List)
	mux.HandleFunc("PUT /api/v1/notifications/{id}/read", h.Notifications.MarkRead)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.ClientInfo,
		middleware.Actor,
		middleware.Logger(logger),
	)
	return chain(mux)
}
