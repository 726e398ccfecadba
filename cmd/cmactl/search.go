package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourorg/cma-api/internal/comps"
	"github.com/yourorg/cma-api/mls"
)

var searchFlags struct {
	limit    int
	statuses []string
	soldDays int
	lat, lon float64
	beds     int
	baths    float64
	sqft     int
	propType string
	explain  bool
	json     bool
}

var searchCmd = &cobra.Command{
	Use:   "search [address]",
	Short: "Find and rank comparables for an address",
	Long: `Runs the fallback search against the configured listings provider and
prints the ranked comparables. Subject flags enable relevance scoring.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.IntVarP(&searchFlags.limit, "limit", "n", comps.DefaultLimit, "maximum number of comparables")
	f.StringSliceVar(&searchFlags.statuses, "status", nil, "listing statuses (default Active,Closed)")
	f.IntVar(&searchFlags.soldDays, "sold-days", comps.DefaultDateSoldDays, "lookback window for closed listings")
	f.Float64Var(&searchFlags.lat, "lat", 0, "subject latitude")
	f.Float64Var(&searchFlags.lon, "lon", 0, "subject longitude")
	f.IntVar(&searchFlags.beds, "beds", 0, "subject bedrooms")
	f.Float64Var(&searchFlags.baths, "baths", 0, "subject bathrooms")
	f.IntVar(&searchFlags.sqft, "sqft", 0, "subject living area")
	f.StringVar(&searchFlags.propType, "type", "", "subject property type")
	f.BoolVar(&searchFlags.explain, "explain", false, "show per-signal score reasons")
	f.BoolVar(&searchFlags.json, "json", false, "output the response as JSON")
	rootCmd.AddCommand(searchCmd)
}

func subjectFromFlags(cmd *cobra.Command) *comps.Subject {
	var s comps.Subject
	set := false
	changed := cmd.Flags().Changed
	if changed("lat") && changed("lon") {
		s.Lat, s.Lon = &searchFlags.lat, &searchFlags.lon
		set = true
	}
	if changed("beds") {
		s.Beds, set = &searchFlags.beds, true
	}
	if changed("baths") {
		s.Baths, set = &searchFlags.baths, true
	}
	if changed("sqft") {
		s.Sqft, set = &searchFlags.sqft, true
	}
	if searchFlags.propType != "" {
		s.PropertyType, set = searchFlags.propType, true
	}
	if !set {
		return nil
	}
	return &s
}

func runSearch(cmd *cobra.Command, args []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}
	subject := subjectFromFlags(cmd)
	resp, err := engine.Search(cmd.Context(), comps.Request{
		Search:       args[0],
		Subject:      subject,
		Statuses:     searchFlags.statuses,
		DateSoldDays: searchFlags.soldDays,
		Limit:        searchFlags.limit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchFlags.json {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Strategy: %s  Tier: %s  Provider calls: %d\n", resp.SearchStrategy, resp.Tier, resp.ProviderCalls)
	if len(resp.Listings) == 0 {
		cmd.Println(resp.Message)
		return nil
	}
	cmd.Printf("Showing %d of %d\n\n", len(resp.Listings), resp.Total)
	for i, l := range resp.Listings {
		cmd.Printf("  [%d] %s  %s\n", i+1, listingLine(l), l.Status)
		cmd.Printf("      $%d  %d bd / %.1f ba / %d sqft\n", l.Price(), l.Beds, l.Baths, l.Sqft)
		if searchFlags.explain {
			for _, r := range engine.Explain(l, subject) {
				cmd.Printf("      %+6.0f  %-8s %s\n", r.Impact, r.Signal, r.Detail)
			}
		}
	}
	return nil
}

func listingLine(l mls.Listing) string {
	line := l.Address.Full
	if l.Address.City != "" {
		line += ", " + l.Address.City
	}
	if l.Address.State != "" {
		line += ", " + l.Address.State
	}
	return line
}
