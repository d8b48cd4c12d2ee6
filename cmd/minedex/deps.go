package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/minedex/minedex/internal/application/handlers"
	"github.com/minedex/minedex/internal/domain/ports"
	"github.com/minedex/minedex/internal/domain/services"
	"github.com/minedex/minedex/internal/infrastructure/canonical"
	"github.com/minedex/minedex/internal/infrastructure/config"
	"github.com/minedex/minedex/internal/infrastructure/relationaldb/sqlite"
	"github.com/minedex/minedex/internal/infrastructure/textmatch"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config         *config.Config
	ImportHandler  *handlers.ImportHandler
	MatchHandler   *handlers.MatchHandler
	ResolveHandler *handlers.ResolveHandler
	StatsHandler   *handlers.StatsHandler
}

// internalDeps holds all dependencies including low-level components.
// Used internally by helper functions.
type internalDeps struct {
	Deps
	store  *sqlite.Repository
	logger *zap.Logger
}

// withDeps loads config and builds dependencies, then calls the provided
// function. It handles cleanup automatically.
func withDeps(fn func(*Deps) error) error {
	return withInternalDeps(func(d *internalDeps) error {
		return fn(&d.Deps)
	})
}

// withInternalDeps provides access to all dependencies including
// low-level components.
func withInternalDeps(fn func(*internalDeps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := newLogger(globalVerbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	store, err := sqlite.NewRepository(cfg.SQLite)
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	similarity, err := textmatch.ForBackend(cfg.Matching.SimilarityBackend)
	if err != nil {
		return fmt.Errorf("selecting similarity backend: %w", err)
	}

	// A missing dataset file disables the cross_reference strategy only.
	dataset, err := canonical.LoadCSV(cfg.Dataset.Path)
	if err != nil {
		return fmt.Errorf("loading canonical dataset: %w", err)
	}
	if dataset == nil && cfg.Dataset.Path != "" {
		logger.Warn("canonical dataset not found, cross_reference disabled",
			zap.String("path", cfg.Dataset.Path))
	}

	// Avoid wrapping a nil *Dataset in a non-nil interface.
	var ds ports.CanonicalDataset
	if dataset != nil {
		ds = dataset
	}

	matching := cfg.Matching.ToMatching()
	matcher := services.NewMatcher(matching, similarity, ds, logger)
	merger := services.NewMergeEngine(matching, similarity, logger)

	deps := &internalDeps{
		Deps: Deps{
			Config:         cfg,
			ImportHandler:  handlers.NewImportHandler(store, matcher, logger),
			MatchHandler:   handlers.NewMatchHandler(store, matcher),
			ResolveHandler: handlers.NewResolveHandler(store, merger, logger),
			StatsHandler:   handlers.NewStatsHandler(store),
		},
		store:  store,
		logger: logger,
	}

	return fn(deps)
}

// newLogger builds the CLI logger. Diagnostics go to stderr so command
// output stays clean; verbose mode lowers the level to debug.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}
