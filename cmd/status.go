package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepdeck/internal/api"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show your server-side session and quota state",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := api.ConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("api config: %w (set PREPDECK_API_TOKEN to sign in)", err)
		}
		client, err := api.NewHTTPClient(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		status, err := client.SessionStatus(ctx)
		if err != nil {
			return fmt.Errorf("session status: %w", err)
		}
		if status.ActiveSession {
			fmt.Printf("Active session: %s (question %d of %d)\n",
				status.SessionID, status.CurrentQuestion, status.TotalQuestions)
		} else {
			fmt.Println("No active session.")
		}

		limit, err := client.LimitStatus(ctx)
		if err != nil {
			return fmt.Errorf("limit status: %w", err)
		}
		fmt.Printf("Completed sessions: %d\n", limit.CompletedSessions)
		if limit.LimitReached {
			fmt.Println("Free-session limit reached. Upgrade at https://prepdeck.app/upgrade")
		}
		return nil
	},
}
