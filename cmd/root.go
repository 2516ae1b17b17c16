package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/forum-inbox/internal/logging"
	"github.com/nhle/forum-inbox/internal/model"
)

var configPath string

// cfg is loaded once before any command runs.
var cfg *model.AppConfig

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "forum-inbox",
	Short: "Live notification inbox for the forum, in your terminal.",
	Long: `forum-inbox keeps a persistent connection to the forum's notification
broker and shows your unread notifications as they arrive, with
mark-read and delete actions synced back to the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = model.LoadConfig(configPath)
		if err != nil {
			return err
		}
		return logging.Init(cfg.Log.Level, cfg.Log.File)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd.RunE(cmd, args)
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", model.DefaultConfigPath(),
		"path to the configuration file",
	)
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}
