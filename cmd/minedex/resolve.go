package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minedex/minedex/internal/application/handlers"
)

func newResolveCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Deduplicate the corpus and assign canonical slugs",
		Long: `Runs a full resolution pass: groups duplicate records, merges each
group into its most complete member, and assigns corpus-unique
canonical slugs. Use --dry-run to preview without committing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without committing")

	return cmd
}

func runResolve(cmd *cobra.Command, dryRun bool) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		result, err := d.ResolveHandler.Handle(ctx, handlers.ResolveOptions{DryRun: dryRun})
		if err != nil {
			return fmt.Errorf("resolving corpus: %w", err)
		}

		for _, g := range result.Groups {
			fmt.Printf("Group of %d -> %s (%s)\n", g.Size, g.CanonicalID, g.CanonicalSlug)
			fmt.Printf("  absorbed: %s\n", strings.Join(g.AbsorbedIDs, ", "))
		}

		fmt.Println()
		if dryRun {
			fmt.Printf("Dry run over %d records: %d duplicate groups, %d records would be absorbed, %d slugs would be assigned\n",
				result.CorpusSize, result.GroupCount, result.AbsorbedCount, result.SlugsAssigned)
		} else {
			fmt.Printf("Resolved %d records: %d duplicate groups merged, %d records absorbed, %d slugs assigned\n",
				result.CorpusSize, result.GroupCount, result.AbsorbedCount, result.SlugsAssigned)
		}

		return nil
	})
}
