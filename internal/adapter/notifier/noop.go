package notifier

import (
	"context"
	"log/slog"
)

// NoOp is the sink used when no webhook is configured. It logs the alert at
// debug level and succeeds.
type NoOp struct {
	log *slog.Logger
}

// NewNoOp creates a no-op sink.
func NewNoOp(log *slog.Logger) *NoOp {
	return &NoOp{log: log.With("sink", "noop")}
}

// Send logs the alert and returns nil.
func (n *NoOp) Send(_ context.Context, title, text string) error {
	n.log.Debug("alert suppressed", "title", title, "text", text)
	return nil
}
