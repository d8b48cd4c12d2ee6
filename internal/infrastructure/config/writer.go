package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Minedex Configuration

sqlite:
  # path: .minedex/corpus.db

dataset:
  # CSV with columns: id, name, lat, lon, commodities, company_id.
  # Leave unset to disable the cross_reference strategy.
  # path: data/canonical_facilities.csv

matching:
  similarity_backend: levenshtein
  # Duplicate-matching thresholds; defaults are the calibrated
  # production values. Override individual keys to recalibrate.
  # proximity_radius_km: 5.0
  # tier1_coord_delta: 0.01
  # tier1_name_similarity: 0.6
  # tier2_coord_delta: 0.1
  # tier2_name_similarity: 0.85
`

// WriteDefault creates the .minedex directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
