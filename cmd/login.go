package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/forum-inbox/internal/api"
	"github.com/nhle/forum-inbox/internal/credential"
)

// loginCmd stores a bearer token in the system keyring after verifying
// it against the backend.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the forum bearer token for this machine",
	Long: `Paste a bearer token obtained from the forum's web login. The token
is verified against the server and stored in the system keyring.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Bearer token").
					Description("From the forum web app's session").
					EchoMode(huh.EchoModePassword).
					Value(&token),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}

		token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
		if token == "" {
			return fmt.Errorf("no token entered")
		}

		subject, err := credential.Subject(token)
		if err != nil {
			return fmt.Errorf("token is not a valid JWT: %w", err)
		}

		creds := credential.NewStore()
		if err := creds.SetToken(token); err != nil {
			return err
		}

		// Probe the backend so a bad token fails here, not at first use.
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		count, err := api.NewClient(cfg.Server.BaseURL, creds).UnreadCount(ctx)
		if err != nil {
			if clearErr := creds.Clear(); clearErr != nil {
				return fmt.Errorf("verifying token: %w (and clearing it failed: %v)", err, clearErr)
			}
			return fmt.Errorf("verifying token: %w", err)
		}

		fmt.Printf("Signed in as %s (%d unread)\n", subject, count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
