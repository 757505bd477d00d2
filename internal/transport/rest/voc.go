package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/geonho/vocautobot-backend/internal/domain"
	vocsvc "github.com/geonho/vocautobot-backend/internal/service/voc"
	"github.com/geonho/vocautobot-backend/pkg/ctxutil"
)

type vocService interface {
	Create(ctx context.Context, actor domain.Actor, in vocsvc.CreateInput) (*domain.Voc, error)
	Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in vocsvc.UpdateInput) (*domain.Voc, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id uuid.UUID, next domain.VocStatus) (*domain.Voc, error)
	Assign(ctx context.Context, actor domain.Actor, id uuid.UUID, assigneeID *uuid.UUID) (*domain.Voc, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Voc, error)
	List(ctx context.Context, f domain.VocFilter, page domain.PageRequest) ([]*domain.Voc, int, error)
}

type triageService interface {
	Analyze(ctx context.Context, voc *domain.Voc) (*domain.AnalysisResult, error)
	GetRecommendation(ctx context.Context, vocID uuid.UUID) (*domain.AnalysisResult, error)
}

// VocHandler serves the VOC lifecycle endpoints.
type VocHandler struct {
	vocs   vocService
	triage triageService
	log    *slog.Logger
}

// NewVocHandler creates a VocHandler.
func NewVocHandler(vocs vocService, triage triageService, logger *slog.Logger) *VocHandler {
	return &VocHandler{
		vocs:   vocs,
		triage: triage,
		log:    logger.With("handler", "voc"),
	}
}

type vocResponse struct {
	ID            uuid.UUID  `json:"id"`
	TicketID      string     `json:"ticket_id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Category      *string    `json:"category,omitempty"`
	CustomerEmail string     `json:"customer_email"`
	CustomerName  *string    `json:"customer_name,omitempty"`
	AssigneeID    *uuid.UUID `json:"assignee_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

func toVocResponse(v *domain.Voc) vocResponse {
	return vocResponse{
		ID:            v.ID,
		TicketID:      v.TicketID,
		Title:         v.Title,
		Content:       v.Content,
		Status:        string(v.Status),
		Priority:      string(v.Priority),
		Category:      v.Category,
		CustomerEmail: v.CustomerEmail,
		CustomerName:  v.CustomerName,
		AssigneeID:    v.AssigneeID,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		ResolvedAt:    v.ResolvedAt,
	}
}

type recommendationResponse struct {
	VocID         uuid.UUID `json:"voc_id"`
	Category      string    `json:"category"`
	Priority      string    `json:"priority"`
	Sentiment     string    `json:"sentiment"`
	Keywords      []string  `json:"keywords"`
	Summary       string    `json:"summary"`
	Confidence    float64   `json:"confidence"`
	LowConfidence bool      `json:"low_confidence"`
	AnalyzedAt    time.Time `json:"analyzed_at"`
}

func toRecommendationResponse(r *domain.AnalysisResult) recommendationResponse {
	return recommendationResponse{
		VocID:         r.VocID,
		Category:      r.Category,
		Priority:      string(r.Priority),
		Sentiment:     string(r.Sentiment),
		Keywords:      r.Keywords,
		Summary:       r.Summary,
		Confidence:    r.Confidence,
		LowConfidence: r.LowConfidence,
		AnalyzedAt:    r.AnalyzedAt,
	}
}

// actorFromRequest extracts the acting user. Mutations require one.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := ctxutil.ActorFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Actor{}, false
	}
	return domain.Actor{UserID: a.UserID, Username: a.Username}, true
}

func vocIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid voc id")
		return uuid.Nil, false
	}
	return id, true
}

type createVocRequest struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Priority      string  `json:"priority"`
	Category      *string `json:"category"`
	CustomerEmail string  `json:"customer_email"`
	CustomerName  *string `json:"customer_name"`
}

// Create registers a new VOC.
// POST /api/v1/vocs
func (h *VocHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req createVocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.vocs.Create(r.Context(), actor, vocsvc.CreateInput{
		Title:         req.Title,
		Content:       req.Content,
		Priority:      domain.VocPriority(req.Priority),
		Category:      req.Category,
		CustomerEmail: req.CustomerEmail,
		CustomerName:  req.CustomerName,
	})
	if err != nil {
		h.log.ErrorContext(r.Context(), "create voc", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toVocResponse(created))
}

// Get returns one VOC.
// GET /api/v1/vocs/{id}
func (h *VocHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := vocIDFromPath(w, r)
	if !ok {
		return
	}

	voc, err := h.vocs.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVocResponse(voc))
}

// List returns VOCs matching the query filters.
// GET /api/v1/vocs?status=&priority=&category=&assignee_id=&limit=&offset=
func (h *VocHandler) List(w http.ResponseWriter, r *http.Request) {
	var f domain.VocFilter
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status := domain.VocStatus(v)
		if !status.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		f.Status = &status
	}
	if v := q.Get("priority"); v != "" {
		priority := domain.VocPriority(v)
		if !priority.IsValid() {
			writeError(w, http.StatusBadRequest, "unknown priority")
			return
		}
		f.Priority = &priority
	}
	if v := q.Get("category"); v != "" {
		f.Category = &v
	}
	if v := q.Get("assignee_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid assignee id")
			return
		}
		f.AssigneeID = &id
	}

	vocs, total, err := h.vocs.List(r.Context(), f, pageFromQuery(r))
	if err != nil {
		h.log.ErrorContext(r.Context(), "list vocs", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}

	items := make([]vocResponse, len(vocs))
	for i, v := range vocs {
		items[i] = toVocResponse(v)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

type updateVocRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	Priority *string `json:"priority"`
}

// Update edits a VOC's human-editable fields.
// PATCH /api/v1/vocs/{id}
func (h *VocHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := vocIDFromPath(w, r)
	if !ok {
		return
	}

	var req updateVocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := vocsvc.UpdateInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	}
	if req.Priority != nil {
		p := domain.VocPriority(*req.Priority)
		in.Priority = &p
	}

	updated, err := h.vocs.Update(r.Context(), actor, id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVocResponse(updated))
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus transitions a VOC's status.
// PUT /api/v1/vocs/{id}/status
func (h *VocHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := vocIDFromPath(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.vocs.UpdateStatus(r.Context(), actor, id, domain.VocStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVocResponse(updated))
}

type assignRequest struct {
	AssigneeID *uuid.UUID `json:"assignee_id"`
}

// Assign sets or clears a VOC's assignee.
// PUT /api/v1/vocs/{id}/assignee
func (h *VocHandler) Assign(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	id, ok := vocIDFromPath(w, r)
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.vocs.Assign(r.Context(), actor, id, req.AssigneeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVocResponse(updated))
}

// GetRecommendation returns the triage recommendation for a VOC.
// GET /api/v1/vocs/{id}/recommendation
func (h *VocHandler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := vocIDFromPath(w, r)
	if !ok {
		return
	}

	rec, err := h.triage.GetRecommendation(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecommendationResponse(rec))
}

// Analyze re-runs triage for a VOC synchronously and returns the fresh
// recommendation. The previous one is replaced.
// POST /api/v1/vocs/{id}/analyze
func (h *VocHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if _, ok := actorFromRequest(w, r); !ok {
		return
	}
	id, ok := vocIDFromPath(w, r)
	if !ok {
		return
	}

	voc, err := h.vocs.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	rec, err := h.triage.Analyze(r.Context(), voc)
	if err != nil {
		h.log.ErrorContext(r.Context(), "manual triage", slog.String("error", err.Error()))
		var unavailable *domain.ClassificationUnavailableError
		if errors.As(err, &unavailable) {
			writeError(w, http.StatusBadGateway, "classifier unavailable")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecommendationResponse(rec))
}
