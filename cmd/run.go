package cmd

import (
	"github.com/spf13/cobra"

	"github.com/nhle/forum-inbox/internal/app"
)

// runCmd starts the interactive inbox. It is also the default action
// when forum-inbox is invoked without a subcommand.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the interactive notification inbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
