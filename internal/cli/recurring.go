package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func newProcessRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process-recurring",
		Short: "Generate all due recurring expenses once and report the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath)
			if err != nil {
				slog.Error("Failed to initialize", "error", err)
				return err
			}
			defer app.Close()

			report, err := app.recurring.ProcessDue(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			cmd.Printf("recurring: %d generated, %d skipped, %d failed\n",
				report.Generated, report.Skipped, report.Failed)
			return nil
		},
	}
}
