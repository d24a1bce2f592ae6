package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepdeck/internal/api"
	"github.com/abhisek/prepdeck/internal/app"
	"github.com/abhisek/prepdeck/internal/assets"
	"github.com/abhisek/prepdeck/internal/engine"
	"github.com/abhisek/prepdeck/internal/gate"
	"github.com/abhisek/prepdeck/internal/progress"
	"github.com/abhisek/prepdeck/internal/store"
)

// runApp opens the journal, builds the API client stack, and launches the
// TUI.
func runApp(cmd *cobra.Command) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer st.Close()

	client, err := buildClient(st)
	if err != nil {
		return err
	}

	journal := st.PracticeLog()
	deps := app.Deps{
		NewController: func() *engine.Controller {
			loader := assets.NewLoader(assets.NewHTTPFetcher(10*time.Second), client)
			return engine.New(client, loader, gate.New(client), journal)
		},
		Aggregator: progress.New(journal),
	}

	return app.Run(deps)
}

// buildClient assembles the HTTP client with call journaling.
func buildClient(st *store.Store) (api.Client, error) {
	cfg := api.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("api config: %w (set PREPDECK_API_TOKEN to sign in)", err)
	}
	client, err := api.NewHTTPClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}
	return api.WithLogging(client, st.PracticeLog()), nil
}
