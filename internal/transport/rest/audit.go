package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/geonho/vocautobot-backend/internal/domain"
)

type auditService interface {
	Query(ctx context.Context, f domain.AuditFilter, page domain.PageRequest) ([]domain.AuditLogEntry, int, error)
}

// AuditHandler serves the audit ledger query endpoint.
type AuditHandler struct {
	audit auditService
	log   *slog.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(audit auditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		audit: audit,
		log:   logger.With("handler", "audit"),
	}
}

type auditEntryResponse struct {
	ID         int64          `json:"id"`
	UserID     uuid.UUID      `json:"user_id"`
	Username   string         `json:"username"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	BeforeData map[string]any `json:"before_data,omitempty"`
	AfterData  map[string]any `json:"after_data,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Query returns audit entries matching the query filters, most recent first.
// GET /api/v1/audit-logs?user_id=&action=&entity_type=&entity_id=&from=&to=&limit=&offset=
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	f, ok := auditFilterFromQuery(w, r)
	if !ok {
		return
	}

	entries, total, err := h.audit.Query(r.Context(), f, pageFromQuery(r))
	if err != nil {
		h.log.ErrorContext(r.Context(), "query audit logs", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}

	items := make([]auditEntryResponse, len(entries))
	for i, e := range entries {
		items[i] = auditEntryResponse{
			ID:         e.ID,
			UserID:     e.UserID,
			Username:   e.Username,
			Action:     string(e.Action),
			EntityType: string(e.EntityType),
			EntityID:   e.EntityID,
			BeforeData: e.BeforeData,
			AfterData:  e.AfterData,
			IPAddress:  e.IPAddress,
			UserAgent:  e.UserAgent,
			CreatedAt:  e.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

func auditFilterFromQuery(w http.ResponseWriter, r *http.Request) (domain.AuditFilter, bool) {
	var f domain.AuditFilter
	q := r.URL.Query()

	if v := q.Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return f, false
		}
		f.UserID = &id
	}
	if v := q.Get("action"); v != "" {
		action := domain.AuditAction(v)
		if !action.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown action")
			return f, false
		}
		f.Action = &action
	}
	if v := q.Get("entity_type"); v != "" {
		et := domain.EntityType(v)
		f.EntityType = &et
	}
	if v := q.Get("entity_id"); v != "" {
		f.EntityID = &v
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be RFC3339")
			return f, false
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "to must be RFC3339")
			return f, false
		}
		f.To = &t
	}
	return f, true
}
