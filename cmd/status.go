package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/forum-inbox/internal/api"
	"github.com/nhle/forum-inbox/internal/credential"
)

// statusCmd reports the current session and unread count without
// opening the TUI, for use in shell prompts and scripts.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session and unread count",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds := credential.NewStore()
		token := creds.Token()
		if token == "" {
			fmt.Println("Not signed in")
			return nil
		}

		subject, err := credential.Subject(token)
		if err != nil {
			subject = "(unknown)"
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		count, err := api.NewClient(cfg.Server.BaseURL, creds).UnreadCount(ctx)
		if err != nil {
			if api.IsCredentialExpired(err) {
				fmt.Println("Session expired; run 'forum-inbox login'")
				return nil
			}
			return fmt.Errorf("reaching %s: %w", cfg.Server.BaseURL, err)
		}

		fmt.Printf("Signed in as %s, %d unread\n", subject, count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
