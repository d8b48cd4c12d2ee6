package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "levenshtein", cfg.Matching.SimilarityBackend)
	assert.Equal(t, 0.95, cfg.Matching.ExactNameConfidence)
	assert.Equal(t, 5.0, cfg.Matching.ProximityRadiusKM)
	assert.Equal(t, 0.01, cfg.Matching.Tier1CoordDelta)
	assert.Equal(t, 0.85, cfg.Matching.Tier2NameSimilarity)
	assert.Empty(t, cfg.SQLite.Path)
	assert.Empty(t, cfg.Dataset.Path)
}

func TestLoad_MissingConfig(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minedex init")
}

func TestLoad_DefaultsWithEmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(ConfigDir(dir), 0o755))
	require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte(""), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 0.95, cfg.Matching.ExactNameConfidence)
	assert.Equal(t, SQLitePath(dir), cfg.SQLite.Path)
}

func TestLoad_OverridesMergeOverDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
sqlite:
  path: /tmp/custom.db
dataset:
  path: data/canonical.csv
matching:
  similarity_backend: jaro_winkler
  proximity_radius_km: 10.0
`
	require.NoError(t, os.MkdirAll(ConfigDir(dir), 0o755))
	require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.SQLite.Path)
	assert.Equal(t, "data/canonical.csv", cfg.Dataset.Path)
	assert.Equal(t, "jaro_winkler", cfg.Matching.SimilarityBackend)
	assert.Equal(t, 10.0, cfg.Matching.ProximityRadiusKM)

	// Keys the file doesn't set keep their defaults.
	assert.Equal(t, 0.95, cfg.Matching.ExactNameConfidence)
	assert.Equal(t, 0.6, cfg.Matching.Tier1NameSimilarity)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(ConfigDir(dir), 0o755))
	require.NoError(t, os.WriteFile(ConfigFilePath(dir), []byte("matching: ["), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestMatchingConfig_ToMatching(t *testing.T) {
	m := Default().Matching.ToMatching()

	assert.Equal(t, 0.90, m.AliasConfidence)
	assert.Equal(t, 50.0, m.CompanyRadiusKM)
	assert.Equal(t, 0.60, m.CompanyNoCoordsConfidence)
	assert.Equal(t, 85.0, m.CrossRefMinScore)
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteDefault(dir))
	assert.True(t, Exists(dir))

	// The written file parses back with defaults intact.
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "levenshtein", cfg.Matching.SimilarityBackend)

	// Writing again must not clobber an existing config.
	assert.Error(t, WriteDefault(dir))
}

func TestWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Dataset.Path = "data/canonical.csv"
	cfg.Matching.ProximityRadiusKM = 7.5
	require.NoError(t, Write(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "data/canonical.csv", loaded.Dataset.Path)
	assert.Equal(t, 7.5, loaded.Matching.ProximityRadiusKM)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("/base", ".minedex"), ConfigDir("/base"))
	assert.Equal(t, filepath.Join("/base", ".minedex", "config.yaml"), ConfigFilePath("/base"))
	assert.Equal(t, filepath.Join("/base", ".minedex", "corpus.db"), SQLitePath("/base"))
	assert.False(t, Exists(t.TempDir()))
}
