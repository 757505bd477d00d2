package rest

import (
	"context"
	"log/slog"
	"net/http"

	statssvc "github.com/geonho/vocautobot-backend/internal/service/stats"
)

type statsService interface {
	GetOverview(ctx context.Context) (*statssvc.Overview, error)
	GetDailyCounts(ctx context.Context, days int) (map[string]int64, error)
}

// StatsHandler serves live statistics endpoints.
type StatsHandler struct {
	stats statsService
	log   *slog.Logger
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(stats statsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		stats: stats,
		log:   logger.With("handler", "stats"),
	}
}

type overviewResponse struct {
	TotalVocs          int64            `json:"total_vocs"`
	TodayVocs          int64            `json:"today_vocs"`
	ProcessedVocs      int64            `json:"processed_vocs"`
	AvgResolutionHours *float64         `json:"avg_resolution_hours"`
	ByCategory         map[string]int64 `json:"by_category"`
	ByPriority         map[string]int64 `json:"by_priority"`
}

// Overview returns the dashboard headline numbers.
// GET /api/v1/statistics/overview
func (h *StatsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.stats.GetOverview(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "statistics overview", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overviewResponse{
		TotalVocs:          ov.TotalVocs,
		TodayVocs:          ov.TodayVocs,
		ProcessedVocs:      ov.ProcessedVocs,
		AvgResolutionHours: ov.AvgResolutionHours,
		ByCategory:         ov.ByCategory,
		ByPriority:         ov.ByPriority,
	})
}

// Daily returns zero-filled per-day VOC counts over the trailing window.
// GET /api/v1/statistics/daily?days=30
func (h *StatsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)

	counts, err := h.stats.GetDailyCounts(r.Context(), days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days":   days,
		"counts": counts,
	})
}
