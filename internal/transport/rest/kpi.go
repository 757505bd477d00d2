package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geonho/vocautobot-backend/internal/domain"
)

type kpiService interface {
	CreateDailySnapshot(ctx context.Context) (*domain.KpiSnapshot, error)
	GetSnapshot(ctx context.Context, date time.Time) (*domain.KpiSnapshot, error)
	GetSnapshotTrend(ctx context.Context, days int) ([]*domain.KpiSnapshot, error)
}

// KpiHandler serves KPI snapshot endpoints.
type KpiHandler struct {
	kpi kpiService
	log *slog.Logger
}

// NewKpiHandler creates a KpiHandler.
func NewKpiHandler(kpi kpiService, logger *slog.Logger) *KpiHandler {
	return &KpiHandler{
		kpi: kpi,
		log: logger.With("handler", "kpi"),
	}
}

type snapshotResponse struct {
	ID                 int64            `json:"id"`
	SnapshotDate       string           `json:"snapshot_date"`
	TotalVocs          int64            `json:"total_vocs"`
	TodayVocs          int64            `json:"today_vocs"`
	ResolvedVocs       int64            `json:"resolved_vocs"`
	AvgResolutionHours *float64         `json:"avg_resolution_hours"`
	CategoryStats      map[string]int64 `json:"category_stats"`
	PriorityStats      map[string]int64 `json:"priority_stats"`
	CreatedAt          time.Time        `json:"created_at"`
}

func toSnapshotResponse(s *domain.KpiSnapshot) snapshotResponse {
	return snapshotResponse{
		ID:                 s.ID,
		SnapshotDate:       s.SnapshotDate.Format("2006-01-02"),
		TotalVocs:          s.TotalVocs,
		TodayVocs:          s.TodayVocs,
		ResolvedVocs:       s.ResolvedVocs,
		AvgResolutionHours: s.AvgResolutionHours,
		CategoryStats:      s.CategoryStats,
		PriorityStats:      s.PriorityStats,
		CreatedAt:          s.CreatedAt,
	}
}

// Trend returns snapshots over the trailing window, oldest first.
// GET /api/v1/kpi/snapshots?days=30
func (h *KpiHandler) Trend(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)

	snapshots, err := h.kpi.GetSnapshotTrend(r.Context(), days)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]snapshotResponse, len(snapshots))
	for i, s := range snapshots {
		items[i] = toSnapshotResponse(s)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days":  days,
		"items": items,
	})
}

// Get returns the snapshot for one calendar date.
// GET /api/v1/kpi/snapshots/{date}
func (h *KpiHandler) Get(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	snapshot, err := h.kpi.GetSnapshot(r.Context(), date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(snapshot))
}

// Create triggers today's snapshot on demand. Re-running is a no-op that
// returns the existing snapshot; the scheduler uses the same path.
// POST /api/v1/kpi/snapshots
func (h *KpiHandler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFromRequest(w, r); !ok {
		return
	}

	snapshot, err := h.kpi.CreateDailySnapshot(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "manual kpi snapshot", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(snapshot))
}
