package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepdeck/internal/progress"
	"github.com/abhisek/prepdeck/internal/store"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Print a progress summary without launching the TUI",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve DB path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer st.Close()

		sum, err := progress.New(st.PracticeLog()).Summary(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Phase: %s\n", sum.Phase)
		fmt.Printf("Sessions completed: %d\n", sum.SessionsCompleted)
		if sum.Attempted > 0 {
			fmt.Printf("Accuracy: %d/%d (%.0f%%)\n",
				sum.Correct, sum.Attempted, sum.Accuracy()*100)
		}
		for _, topic := range sum.Topics {
			fmt.Printf("  %-16s %d answered, %d correct\n",
				topic.Topic, topic.Attempted, topic.Correct)
		}
		return nil
	},
}
