package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/forum-inbox/internal/credential"
)

// logoutCmd removes the stored bearer token. Any running inbox tears
// its channel connection down when the backend rejects the next call.
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored forum session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credential.NewStore().Clear(); err != nil {
			return err
		}
		fmt.Println("Signed out")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
