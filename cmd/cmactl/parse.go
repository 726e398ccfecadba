package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourorg/cma-api/internal/canon"
	"github.com/yourorg/cma-api/internal/comps"
)

var parseCmd = &cobra.Command{
	Use:   "parse [address]",
	Short: "Parse an address and show its fallback tiers",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	addr := args[0]
	out := struct {
		Address       string              `json:"address"`
		SuffixVersion string              `json:"suffixVersion"`
		Parsed        canon.ParsedAddress `json:"parsed"`
		Tiers         []comps.Tier        `json:"tiers"`
	}{
		Address:       addr,
		SuffixVersion: canon.DefaultSuffixes.Version,
		Parsed:        canon.Parse(addr),
		Tiers:         comps.BuildFallbacks(addr),
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
