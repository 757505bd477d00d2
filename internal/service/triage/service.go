// Package triage provides the classification pipeline for incoming VOCs.
// It delegates to a pluggable classifier backend under a per-attempt
// deadline, retries once, flags low-confidence results, and attaches the
// outcome as an advisory recommendation.
package triage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/geonho/vocautobot-backend/internal/config"
	"github.com/geonho/vocautobot-backend/internal/domain"
)

type classifier interface {
	Classify(ctx context.Context, title, content string, meta domain.Classification) (domain.Classification, error)
}

type recommendationStore interface {
	AttachRecommendation(ctx context.Context, res domain.AnalysisResult) error
	GetRecommendation(ctx context.Context, vocID uuid.UUID) (*domain.AnalysisResult, error)
}

type alertSink interface {
	Send(ctx context.Context, title, text string) error
}

// Service runs triage analysis on VOC records.
type Service struct {
	log        *slog.Logger
	classifier classifier
	store      recommendationStore
	alerts     alertSink

	timeout      time.Duration
	retryBackoff time.Duration
	threshold    float64
}

// NewService creates a new triage service.
func NewService(log *slog.Logger, cfg config.ClassifierConfig, c classifier, store recommendationStore, alerts alertSink) *Service {
	return &Service{
		log:          log.With("service", "triage"),
		classifier:   c,
		store:        store,
		alerts:       alerts,
		timeout:      cfg.Timeout,
		retryBackoff: cfg.RetryBackoff,
		threshold:    cfg.ConfidenceThreshold,
	}
}

// Analyze classifies a VOC and attaches the result as its recommendation.
// The classifier gets one retry after a backoff; each attempt runs under its
// own deadline. The VOC's authoritative category/priority are never touched.
// When the classifier cannot produce a usable result, the returned error
// wraps domain.ClassificationUnavailableError and nothing is attached.
func (s *Service) Analyze(ctx context.Context, voc *domain.Voc) (*domain.AnalysisResult, error) {
	if voc.Title == "" {
		return nil, domain.NewValidationError("title", "must not be empty")
	}
	if voc.Content == "" {
		return nil, domain.NewValidationError("content", "must not be empty")
	}

	meta := domain.Classification{Priority: voc.Priority}
	if voc.Category != nil {
		meta.Category = *voc.Category
	}

	started := time.Now()
	cls, err := s.classifyWithRetry(ctx, voc, meta)
	if err != nil {
		return nil, &domain.ClassificationUnavailableError{
			VocID:   voc.ID.String(),
			Elapsed: time.Since(started),
			Err:     err,
		}
	}

	result := domain.AnalysisResult{
		VocID:         voc.ID,
		Category:      cls.Category,
		Priority:      cls.Priority,
		Sentiment:     cls.Sentiment,
		Keywords:      cls.Keywords,
		Summary:       cls.Summary,
		Confidence:    cls.Confidence,
		LowConfidence: cls.Confidence < s.threshold,
		AnalyzedAt:    time.Now().UTC(),
	}

	if err := s.store.AttachRecommendation(ctx, result); err != nil {
		return nil, fmt.Errorf("attach recommendation: %w", err)
	}

	s.log.InfoContext(ctx, "voc analyzed",
		slog.String("voc_id", voc.ID.String()),
		slog.String("category", result.Category),
		slog.String("priority", string(result.Priority)),
		slog.Float64("confidence", result.Confidence),
		slog.Bool("low_confidence", result.LowConfidence))

	if result.Priority == domain.VocPriorityUrgent {
		s.sendUrgentAlert(voc, result)
	}

	return &result, nil
}

// classifyWithRetry runs up to two attempts. An invalid classifier response
// counts as a failed attempt the same as a transport error or timeout.
func (s *Service) classifyWithRetry(ctx context.Context, voc *domain.Voc, meta domain.Classification) (domain.Classification, error) {
	cls, firstErr := s.classifyOnce(ctx, voc, meta)
	if firstErr == nil {
		return cls, nil
	}
	if ctx.Err() != nil {
		return domain.Classification{}, firstErr
	}

	s.log.WarnContext(ctx, "classification attempt failed, retrying",
		slog.String("voc_id", voc.ID.String()),
		slog.String("error", firstErr.Error()))

	select {
	case <-time.After(s.retryBackoff):
	case <-ctx.Done():
		return domain.Classification{}, firstErr
	}

	cls, retryErr := s.classifyOnce(ctx, voc, meta)
	if retryErr != nil {
		return domain.Classification{}, fmt.Errorf("retry failed: %w (first attempt: %v)", retryErr, firstErr)
	}
	return cls, nil
}

func (s *Service) classifyOnce(ctx context.Context, voc *domain.Voc, meta domain.Classification) (domain.Classification, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cls, err := s.classifier.Classify(attemptCtx, voc.Title, voc.Content, meta)
	if err != nil {
		return domain.Classification{}, err
	}
	if err := validateClassification(cls); err != nil {
		return domain.Classification{}, err
	}
	return cls, nil
}

// validateClassification rejects responses the rest of the system cannot
// trust. Failing here triggers the same retry path as a transport error.
func validateClassification(cls domain.Classification) error {
	if cls.Category == "" {
		return fmt.Errorf("classifier returned empty category")
	}
	if !cls.Priority.IsValid() {
		return fmt.Errorf("classifier returned unknown priority %q", cls.Priority)
	}
	if !cls.Sentiment.IsValid() {
		return fmt.Errorf("classifier returned unknown sentiment %q", cls.Sentiment)
	}
	if cls.Confidence < 0 || cls.Confidence > 1 {
		return fmt.Errorf("classifier returned confidence %v outside [0,1]", cls.Confidence)
	}
	return nil
}

// sendUrgentAlert notifies operators about an urgent triage outcome.
// Delivery is fire-and-forget: a sink failure is logged and never fails the
// analysis.
func (s *Service) sendUrgentAlert(voc *domain.Voc, res domain.AnalysisResult) {
	title := fmt.Sprintf("Urgent VOC %s: %s", voc.TicketID, voc.Title)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.alerts.Send(ctx, title, res.Summary); err != nil {
			s.log.Warn("urgent alert delivery failed",
				slog.String("voc_id", voc.ID.String()),
				slog.String("error", err.Error()))
		}
	}()
}

// GetRecommendation returns the stored recommendation for a VOC.
func (s *Service) GetRecommendation(ctx context.Context, vocID uuid.UUID) (*domain.AnalysisResult, error) {
	return s.store.GetRecommendation(ctx, vocID)
}
