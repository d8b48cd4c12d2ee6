package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minedex/minedex/internal/infrastructure/config"
	"github.com/minedex/minedex/internal/infrastructure/relationaldb/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a minedex corpus in the current directory",
		Long: `Creates the .minedex directory with a default config file and an
empty corpus database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd)
		},
	}
}

func runInit(cmd *cobra.Command) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.Exists(cwd) {
		return fmt.Errorf("already initialized: %s", config.ConfigFilePath(cwd))
	}

	if err := config.WriteDefault(cwd); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	store, err := sqlite.NewRepository(config.SQLiteConfig{Path: config.SQLitePath(cwd)})
	if err != nil {
		return fmt.Errorf("creating corpus database: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(cmd.Context()); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	fmt.Printf("Initialized minedex corpus in %s\n", config.ConfigDir(cwd))
	return nil
}
