package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/forum-inbox/internal/model"
)

// configCmd writes the active configuration, defaults included, to the
// config file so individual settings can be edited.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the active configuration to the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := model.SaveConfig(configPath, cfg); err != nil {
			return err
		}
		fmt.Println("Wrote", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
