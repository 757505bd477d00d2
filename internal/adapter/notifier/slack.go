// Package notifier implements outbound alert sinks. Slack is the only real
// sink; deployments without a webhook URL get the no-op sink.
package notifier

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/geonho/vocautobot-backend/internal/config"
)

// Slack posts alerts to a Slack incoming webhook.
type Slack struct {
	http    *resty.Client
	channel string
}

// NewSlack creates a Slack sink for the configured webhook.
func NewSlack(cfg config.SlackConfig) *Slack {
	return &Slack{
		http: resty.New().
			SetBaseURL(cfg.WebhookURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json"),
		channel: cfg.Channel,
	}
}

// slackPayload is the incoming-webhook message format.
type slackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color string `json:"color"`
	Text  string `json:"text"`
}

// Send posts one alert. Failures are returned to the caller, which treats
// delivery as best effort.
func (s *Slack) Send(ctx context.Context, title, text string) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(slackPayload{
			Channel: s.channel,
			Text:    title,
			Attachments: []slackAttachment{
				{Color: "danger", Text: text},
			},
		}).
		Post("")
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("slack webhook returned %s", resp.Status())
	}
	return nil
}
