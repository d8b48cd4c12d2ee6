package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minedex/minedex/internal/application/handlers"
)

type importFlags struct {
	format          string
	dryRun          bool
	allowDuplicates bool
	threshold       float64
}

func newImportCmd() *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import facility records from JSON or CSV",
		Long: `Imports facility records from a structured file. Each record is
screened against the existing corpus; likely duplicates are reported
and held back unless --allow-duplicates is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "File format (json, csv, auto)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate and match without saving")
	cmd.Flags().BoolVar(&flags.allowDuplicates, "allow-duplicates", false, "Import records even when a likely duplicate exists")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", handlers.DefaultDuplicateThreshold, "Confidence at which a match is treated as a duplicate")

	return cmd
}

func runImport(cmd *cobra.Command, filePath string, flags importFlags) error {
	ctx := cmd.Context()

	return withDeps(func(d *Deps) error {
		opts := handlers.ImportOptions{
			Format:             flags.format,
			DryRun:             flags.dryRun,
			AllowDuplicates:    flags.allowDuplicates,
			DuplicateThreshold: flags.threshold,
		}

		fmt.Printf("Importing %s...\n", filePath)

		result, err := d.ImportHandler.Handle(ctx, filePath, opts)
		if err != nil {
			return fmt.Errorf("importing file: %w", err)
		}

		if len(result.Errors) > 0 {
			fmt.Printf("\nValidation errors (%d):\n", len(result.Errors))
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
		}

		if len(result.Duplicates) > 0 {
			fmt.Printf("\nLikely duplicates (%d):\n", len(result.Duplicates))
			for _, dup := range result.Duplicates {
				fmt.Printf("  line %d: %q matches %s (%s, confidence %.2f)\n",
					dup.Line, dup.Name, dup.Candidate.TargetID, dup.Candidate.Strategy, dup.Candidate.Confidence)
			}
		}

		fmt.Println()
		if flags.dryRun {
			fmt.Printf("Dry run: %d records would be imported", result.Imported)
		} else {
			fmt.Printf("Imported: %d records", result.Imported)
		}
		if result.Skipped > 0 {
			fmt.Printf(", %d held back as duplicates", result.Skipped)
		}
		if len(result.Errors) > 0 {
			fmt.Printf(", %d errors", len(result.Errors))
		}
		fmt.Println()

		return nil
	})
}
