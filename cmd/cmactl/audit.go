package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the search audit table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Migrations applied.")
		return nil
	},
}

var searchesLimit int

var searchesCmd = &cobra.Command{
	Use:   "searches",
	Short: "List recent audited searches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		recent, err := st.RecentSearches(cmd.Context(), searchesLimit)
		if err != nil {
			return fmt.Errorf("list searches: %w", err)
		}
		if len(recent) == 0 {
			cmd.Println("No searches recorded.")
			return nil
		}
		for _, s := range recent {
			label := s.Query
			if s.Criteria {
				label = "(criteria)"
			}
			cmd.Printf("%s  %-14s %-9s %3d results  %2d calls  %5dms  %s\n",
				s.At.Local().Format(time.DateTime), s.Strategy, s.Tier, s.Results, s.ProviderCalls, s.DurationMS, label)
		}
		return nil
	},
}

func init() {
	searchesCmd.Flags().IntVarP(&searchesLimit, "limit", "n", 20, "number of searches to show")
	rootCmd.AddCommand(migrateCmd, searchesCmd)
}
