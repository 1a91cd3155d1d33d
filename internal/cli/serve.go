package cli

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/splitsmart/backend/internal/api"
)

func runRecurringLoop(ctx context.Context, app *app, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := app.recurring.ProcessDue(ctx, time.Now()); err != nil {
			slog.Error("Recurring pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ledger engine HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath)
			if err != nil {
				slog.Error("Failed to initialize", "error", err)
				return err
			}
			defer app.Close()

			slog.Info("Storage initialized", "database", app.cfg.Database.Path, "queue", app.cfg.Queue.Path)

			server := api.NewServer(app.expenses, app.settlements, app.recurring, app.ledger, app.orchestrator, app.queue)
			mux := server.Routes()
			mux.Handle("GET /metrics", promhttp.Handler())

			handler := api.LoggingMiddleware(api.CORSMiddleware(mux))

			// Background connectivity watcher: drains the queue on each
			// offline-to-online transition.
			if app.cfg.Sync.ProbeURL != "" {
				interval := time.Duration(app.cfg.Sync.ProbeIntervalSec) * time.Second
				go app.orchestrator.Watch(cmd.Context(), interval)
			}

			// Recurring-expense generation: one pass at startup, then on a
			// fixed interval.
			go runRecurringLoop(cmd.Context(), app, time.Duration(app.cfg.Recurring.CheckIntervalSec)*time.Second)

			slog.Info("Server starting", "address", app.cfg.Server.Addr)
			if err := http.ListenAndServe(app.cfg.Server.Addr, handler); err != nil {
				slog.Error("Server failed", "error", err)
				return err
			}
			return nil
		},
	}
}
