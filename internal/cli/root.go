// Package cli wires the engine's commands: serve (long-running HTTP service),
// sync (one-shot drain of the offline queue), and process-recurring (one-shot
// generation pass over due recurring expenses).
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// NewRootCmd builds the splitsmart command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "splitsmart",
		Short:         "Group expense ledger and settlement engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to TOML config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newProcessRecurringCmd())

	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
