package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List facilities in the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", DefaultListLimit, "Maximum number of facilities to show")

	return cmd
}

func runList(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()

	return withInternalDeps(func(d *internalDeps) error {
		facilities, err := d.store.ListFacilities(ctx)
		if err != nil {
			return fmt.Errorf("listing facilities: %w", err)
		}

		if len(facilities) == 0 {
			fmt.Println("No facilities found.")
			return nil
		}

		fmt.Printf("Facilities (%d total):\n\n", len(facilities))
		for i, f := range facilities {
			if limit > 0 && i >= limit {
				fmt.Printf("  ... and %d more\n", len(facilities)-limit)
				break
			}
			slug := f.CanonicalSlug
			if slug == "" {
				slug = "-"
			}
			fmt.Printf("  %-42s %-30s %-4s %s\n", f.FacilityID, slug, f.CountryISO3, f.Name)
		}

		return nil
	})
}
