// Package httpapi implements the classifier client against the JSON
// analysis service. The service is a plain request/response HTTP API; the
// per-call deadline comes from the caller's context, set by the triage
// engine.
package httpapi

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/geonho/vocautobot-backend/internal/config"
	"github.com/geonho/vocautobot-backend/internal/domain"
)

// Client calls the external VOC analysis service.
type Client struct {
	http *resty.Client
}

// New creates a classifier client for the configured base URL.
func New(cfg config.ClassifierConfig) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetHeader("Content-Type", "application/json"),
	}
}

// classifyRequest is the wire format sent to the analysis service.
type classifyRequest struct {
	Title   string          `json:"title"`
	Content string          `json:"content"`
	Context classifyContext `json:"context"`
}

// classifyContext carries prior human-set fields for context, never as
// ground truth.
type classifyContext struct {
	Category string `json:"category,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// classifyResponse is the wire format returned by the analysis service.
type classifyResponse struct {
	Category   string   `json:"category"`
	Priority   string   `json:"priority"`
	Sentiment  string   `json:"sentiment"`
	Keywords   []string `json:"keywords"`
	Summary    string   `json:"summary"`
	Confidence float64  `json:"confidence"`
}

// Classify sends the VOC text to the analysis service and returns its
// suggestion. Transport errors, non-2xx statuses, and context deadline
// expiry all surface as errors for the triage engine's retry policy.
func (c *Client) Classify(ctx context.Context, title, content string, meta domain.Classification) (domain.Classification, error) {
	var out classifyResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(classifyRequest{
			Title:   title,
			Content: content,
			Context: classifyContext{
				Category: meta.Category,
				Priority: string(meta.Priority),
			},
		}).
		SetResult(&out).
		Post("/api/v1/analyze")
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classifier request: %w", err)
	}
	if resp.IsError() {
		return domain.Classification{}, fmt.Errorf("classifier returned %s", resp.Status())
	}

	return domain.Classification{
		Category:   out.Category,
		Priority:   domain.VocPriority(out.Priority),
		Sentiment:  domain.Sentiment(out.Sentiment),
		Keywords:   out.Keywords,
		Summary:    out.Summary,
		Confidence: out.Confidence,
	}, nil
}
