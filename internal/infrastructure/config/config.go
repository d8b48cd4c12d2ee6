// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/minedex/minedex/internal/domain/services"
)

const (
	// DefaultConfigDir is the directory name for minedex configuration.
	DefaultConfigDir = ".minedex"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultSQLiteFile is the default corpus database file name.
	DefaultSQLiteFile = "corpus.db"
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Dataset  DatasetConfig  `yaml:"dataset,omitempty"`
	Matching MatchingConfig `yaml:"matching,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite corpus database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// DatasetConfig points at the external canonical dataset used by the
// cross_reference strategy. A missing file disables the strategy.
type DatasetConfig struct {
	// Path is the CSV file holding the canonical facility table.
	Path string `yaml:"path,omitempty"`
}

// MatchingConfig overrides the duplicate-matching thresholds. The
// defaults are the empirically chosen production values; override them
// here when recalibrating against a labeled duplicate dataset.
type MatchingConfig struct {
	SimilarityBackend string `yaml:"similarity_backend,omitempty"`

	ExactNameConfidence float64 `yaml:"exact_name_confidence,omitempty"`
	AliasConfidence     float64 `yaml:"alias_confidence,omitempty"`

	ProximityRadiusKM      float64 `yaml:"proximity_radius_km,omitempty"`
	ProximityMaxConfidence float64 `yaml:"proximity_max_confidence,omitempty"`
	ProximityDecay         float64 `yaml:"proximity_decay,omitempty"`

	CompanyRadiusKM           float64 `yaml:"company_radius_km,omitempty"`
	CompanyMaxConfidence      float64 `yaml:"company_max_confidence,omitempty"`
	CompanyDecay              float64 `yaml:"company_decay,omitempty"`
	CompanyNoCoordsConfidence float64 `yaml:"company_no_coords_confidence,omitempty"`

	CrossRefMinScore float64 `yaml:"cross_ref_min_score,omitempty"`

	Tier1CoordDelta     float64 `yaml:"tier1_coord_delta,omitempty"`
	Tier1NameSimilarity float64 `yaml:"tier1_name_similarity,omitempty"`
	Tier2CoordDelta     float64 `yaml:"tier2_coord_delta,omitempty"`
	Tier2NameSimilarity float64 `yaml:"tier2_name_similarity,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	m := services.DefaultMatching()
	return &Config{
		Matching: MatchingConfig{
			SimilarityBackend: "levenshtein",

			ExactNameConfidence: m.ExactNameConfidence,
			AliasConfidence:     m.AliasConfidence,

			ProximityRadiusKM:      m.ProximityRadiusKM,
			ProximityMaxConfidence: m.ProximityMaxConfidence,
			ProximityDecay:         m.ProximityDecay,

			CompanyRadiusKM:           m.CompanyRadiusKM,
			CompanyMaxConfidence:      m.CompanyMaxConfidence,
			CompanyDecay:              m.CompanyDecay,
			CompanyNoCoordsConfidence: m.CompanyNoCoordsConfidence,

			CrossRefMinScore: m.CrossRefMinScore,

			Tier1CoordDelta:     m.Tier1CoordDelta,
			Tier1NameSimilarity: m.Tier1NameSimilarity,
			Tier2CoordDelta:     m.Tier2CoordDelta,
			Tier2NameSimilarity: m.Tier2NameSimilarity,
		},
	}
}

// Load loads configuration from the .minedex directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'minedex init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults; the file only overrides what it sets.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = SQLitePath(basePath)
	}

	return cfg, nil
}

// ToMatching converts the YAML overrides into the domain matching config.
func (m MatchingConfig) ToMatching() services.MatchingConfig {
	return services.MatchingConfig{
		ExactNameConfidence: m.ExactNameConfidence,
		AliasConfidence:     m.AliasConfidence,

		ProximityRadiusKM:      m.ProximityRadiusKM,
		ProximityMaxConfidence: m.ProximityMaxConfidence,
		ProximityDecay:         m.ProximityDecay,

		CompanyRadiusKM:           m.CompanyRadiusKM,
		CompanyMaxConfidence:      m.CompanyMaxConfidence,
		CompanyDecay:              m.CompanyDecay,
		CompanyNoCoordsConfidence: m.CompanyNoCoordsConfidence,

		CrossRefMinScore: m.CrossRefMinScore,

		Tier1CoordDelta:     m.Tier1CoordDelta,
		Tier1NameSimilarity: m.Tier1NameSimilarity,
		Tier2CoordDelta:     m.Tier2CoordDelta,
		Tier2NameSimilarity: m.Tier2NameSimilarity,
	}
}

// ConfigDir returns the path to the .minedex config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// SQLitePath returns the default corpus database path.
func SQLitePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultSQLiteFile)
}

// Exists checks if a minedex config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
