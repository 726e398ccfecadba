package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourorg/cma-api/internal/env"
	"github.com/yourorg/cma-api/internal/redisx"
)

type quotaCounter interface {
	Used(ctx context.Context) (int64, error)
}

var openQuota = func() (quotaCounter, func() error, int, error) {
	addr := env.Get("REDIS_ADDR", "")
	if addr == "" {
		return nil, nil, 0, fmt.Errorf("REDIS_ADDR is not set")
	}
	rc := redisx.New(addr, env.Get("REDIS_PASSWORD", ""), env.GetInt("REDIS_DB", 0))
	limit := env.GetInt("MLS_DAILY_LIMIT", 0)
	return redisx.NewDailyQuota(rc.Rdb, "", limit), rc.Close, limit, nil
}

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show today's provider call count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, closeFn, limit, err := openQuota()
		if err != nil {
			return err
		}
		defer closeFn()
		used, err := q.Used(cmd.Context())
		if err != nil {
			return fmt.Errorf("read quota: %w", err)
		}
		if limit <= 0 {
			cmd.Printf("Provider calls today: %d (no daily limit)\n", used)
			return nil
		}
		cmd.Printf("Provider calls today: %d of %d\n", used, limit)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}
