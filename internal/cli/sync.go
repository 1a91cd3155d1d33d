package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Drain the offline queue once and report the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath)
			if err != nil {
				slog.Error("Failed to initialize", "error", err)
				return err
			}
			defer app.Close()

			report, err := app.orchestrator.Sync(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("synced: %d succeeded, %d failed (%d dropped)\n",
				report.Succeeded, report.Failed, report.Dropped)
			return nil
		},
	}
}
