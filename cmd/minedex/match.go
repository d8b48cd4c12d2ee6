package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minedex/minedex/internal/application/handlers"
	"github.com/minedex/minedex/internal/domain/entities"
)

type matchFlags struct {
	lat, lon    float64
	hasCoords   bool
	operator    string
	commodities []string
	strategies  []string
	limit       int
}

func newMatchCmd() *cobra.Command {
	var flags matchFlags

	cmd := &cobra.Command{
		Use:   "match <name>",
		Short: "Find likely duplicates of a facility in the corpus",
		Long: `Runs the duplicate-detection strategies for a probe record and
prints the ranked candidates.

Examples:
  minedex match "Stillwater Mine"
  minedex match "Stillwater Mine" --lat 45.5 --lon -109.8
  minedex match "Stillwater Mine" --strategies exact_name,alias_match`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.hasCoords = cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon")
			return runMatch(cmd, args[0], flags)
		},
	}

	cmd.Flags().Float64Var(&flags.lat, "lat", 0, "Probe latitude")
	cmd.Flags().Float64Var(&flags.lon, "lon", 0, "Probe longitude")
	cmd.Flags().StringVar(&flags.operator, "operator", "", "Probe operator company ID")
	cmd.Flags().StringSliceVar(&flags.commodities, "commodities", nil, "Probe commodities (metals)")
	cmd.Flags().StringSliceVar(&flags.strategies, "strategies", nil, "Strategies to run (default: all)")
	cmd.Flags().IntVar(&flags.limit, "limit", DefaultMatchLimit, "Maximum number of candidates to show")

	return cmd
}

func runMatch(cmd *cobra.Command, name string, flags matchFlags) error {
	ctx := cmd.Context()

	var strategies []entities.Strategy
	for _, s := range flags.strategies {
		strategies = append(strategies, entities.Strategy(strings.TrimSpace(s)))
	}

	return withDeps(func(d *Deps) error {
		query := handlers.MatchQuery{
			Name:        name,
			OperatorID:  flags.operator,
			Commodities: flags.commodities,
		}
		if flags.hasCoords {
			query.Lat = &flags.lat
			query.Lon = &flags.lon
		}

		result, err := d.MatchHandler.Handle(ctx, query, strategies...)
		if err != nil {
			return fmt.Errorf("matching: %w", err)
		}

		if len(result.Candidates) == 0 {
			fmt.Printf("No duplicates found for %q (%d records searched).\n", name, result.CorpusSize)
			return nil
		}

		fmt.Printf("Candidates for %q (%d records searched):\n\n", name, result.CorpusSize)
		for _, c := range result.Candidates {
			if flags.limit > 0 && c.Rank > flags.limit {
				break
			}
			fmt.Printf("  %2d. %-30s %.2f  %s", c.Rank, c.TargetID, c.Confidence, c.Strategy)
			if c.Evidence.DistanceKM != nil {
				fmt.Printf("  (%.1f km)", *c.Evidence.DistanceKM)
			}
			if c.Evidence.MatchedText != "" {
				fmt.Printf("  %q", c.Evidence.MatchedText)
			}
			fmt.Println()
		}

		return nil
	})
}
