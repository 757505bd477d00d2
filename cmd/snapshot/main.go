// Command snapshot computes today's KPI snapshot once and exits. It is a
// manual escape hatch for the in-process scheduler: running it on a day
// that already has a snapshot is a no-op.
//
// Exit codes: 0 = success (snapshot created or already present), 1 = error.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/geonho/vocautobot-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunSnapshot(ctx); err != nil {
		slog.Error("kpi snapshot failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
