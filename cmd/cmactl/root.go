package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourorg/cma-api/internal/comps"
	"github.com/yourorg/cma-api/internal/env"
	"github.com/yourorg/cma-api/internal/events"
	"github.com/yourorg/cma-api/internal/logger"
	"github.com/yourorg/cma-api/internal/store"
	"github.com/yourorg/cma-api/mls"
)

var rootCmd = &cobra.Command{
	Use:   "cmactl",
	Short: "Operate the comparables engine",
	Long: `cmactl parses addresses, runs comparables searches against the configured
listings provider and manages the search audit log.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := env.Load(); err != nil {
			return err
		}
		h := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logger.ParseLevel(env.Get("LOG_LEVEL", "warn"))})
		slog.SetDefault(slog.New(h))
		return nil
	},
}

type auditStore interface {
	Migrate(ctx context.Context) error
	RecentSearches(ctx context.Context, limit int) ([]events.SearchCompleted, error)
	Close() error
}

// Swapped in tests.
var (
	newEngine = defaultEngine
	openStore = defaultStore
)

func defaultEngine() (*comps.Engine, error) {
	client := mls.NewClient(mls.Config{
		BaseURL:       env.Get("MLS_BASE_URL", ""),
		APIKey:        env.Get("MLS_API_KEY", ""),
		APISecret:     env.Get("MLS_API_SECRET", ""),
		RatePerSecond: env.GetFloat("MLS_RATE_PER_SEC", 5),
	})
	scoring, err := comps.LoadScoringConfig(env.Get("SCORING_CONFIG", ""))
	if err != nil {
		return nil, err
	}
	return comps.NewEngine(client, comps.Options{
		Scoring:          &scoring,
		Timeout:          env.GetDuration("SEARCH_TIMEOUT", 0),
		ParallelStatuses: env.GetBool("PARALLEL_STATUSES", false),
	}), nil
}

func defaultStore() (auditStore, error) {
	dsn := env.Get("PG_DSN", "")
	if dsn == "" {
		return nil, fmt.Errorf("PG_DSN is not set")
	}
	return store.Open(dsn)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
