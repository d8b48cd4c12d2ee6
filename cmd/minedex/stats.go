package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd)
		},
	}
}

func runStats(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		result, err := d.StatsHandler.Handle(ctx)
		if err != nil {
			return fmt.Errorf("collecting stats: %w", err)
		}

		fmt.Printf("Facilities: %d\n", result.Total)

		statuses := make([]string, 0, len(result.ByStatus))
		for status := range result.ByStatus {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)

		for _, status := range statuses {
			fmt.Printf("  %-14s %d\n", status, result.ByStatus[status])
		}

		return nil
	})
}
