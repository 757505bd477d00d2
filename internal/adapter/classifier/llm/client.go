// Package llm implements the classifier client on top of the Anthropic
// Messages API. The model is prompted to emit a single JSON object; the
// response is parsed defensively since LLM output may carry prose around
// the JSON.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"

	"github.com/geonho/vocautobot-backend/internal/config"
	"github.com/geonho/vocautobot-backend/internal/domain"
)

// Client classifies VOC text via an LLM.
type Client struct {
	api   anthropic.Client
	model string
}

// New creates an LLM classifier. The API key is read from the standard
// ANTHROPIC_API_KEY environment variable by the SDK.
func New(cfg config.ClassifierConfig) *Client {
	return &Client{
		api:   anthropic.NewClient(),
		model: cfg.Model,
	}
}

// wireResult is the JSON schema the prompt asks the model to produce.
type wireResult struct {
	Category   string   `json:"category"`
	Priority   string   `json:"priority"`
	Sentiment  string   `json:"sentiment"`
	Keywords   []string `json:"keywords"`
	Summary    string   `json:"summary"`
	Confidence float64  `json:"confidence"`
}

// Classify prompts the model with the VOC text and parses its JSON answer.
func (c *Client) Classify(ctx context.Context, title, content string, meta domain.Classification) (domain.Classification, error) {
	prompt := buildPrompt(title, content, meta)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("llm api call: %w", err)
	}
	if len(msg.Content) == 0 {
		return domain.Classification{}, fmt.Errorf("empty llm response")
	}

	return parseResponse(msg.Content[0].Text)
}

// buildPrompt creates the classification prompt for one VOC.
func buildPrompt(title, content string, meta domain.Classification) string {
	var prior string
	if meta.Category != "" || meta.Priority != "" {
		prior = fmt.Sprintf("\nFor context only (do NOT simply echo these): an agent previously set category=%q priority=%q.\n",
			meta.Category, meta.Priority)
	}

	return fmt.Sprintf(`You are a customer-support triage assistant.

Classify the following customer complaint.
%s
Title: %s

Content:
%s

Output ONLY a valid JSON object matching this exact schema:
{
  "category": "<short lowercase category, e.g. hardware, billing, delivery>",
  "priority": "<LOW|NORMAL|HIGH|URGENT>",
  "sentiment": "<POSITIVE|NEUTRAL|NEGATIVE>",
  "keywords": ["<up to 5 salient keywords>"],
  "summary": "<one-sentence summary>",
  "confidence": <your certainty in [0,1]>
}

Rules:
- Use URGENT only for outages, safety issues, or data loss
- Output ONLY the JSON, no markdown, no explanations`, prior, title, content)
}

// parseResponse extracts and decodes the JSON object from the model output.
func parseResponse(text string) (domain.Classification, error) {
	jsonStr, err := extractJSON(text)
	if err != nil {
		return domain.Classification{}, err
	}

	var out wireResult
	if err := json.Unmarshal([]byte(jsonStr), &out); err != nil {
		return domain.Classification{}, fmt.Errorf("decode llm response: %w", err)
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

// extractJSON finds the first complete JSON object in a string.
func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}
