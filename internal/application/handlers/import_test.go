package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minedex/minedex/internal/domain/entities"
	"github.com/minedex/minedex/internal/domain/mocks"
	"github.com/minedex/minedex/internal/domain/services"
	"github.com/minedex/minedex/internal/infrastructure/textmatch"
)

func newTestImportHandler(store *mocks.CorpusStore) *ImportHandler {
	matcher := services.NewMatcher(services.DefaultMatching(), textmatch.Levenshtein{}, nil, nil)
	return NewImportHandler(store, matcher, nil)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportHandler_ImportsCSV(t *testing.T) {
	store := mocks.NewCorpusStore()
	h := newTestImportHandler(store)

	path := writeTempFile(t, "facilities.csv", `name,lat,lon,region,commodities,operator_company_id
Stillwater Mine,45.3866,-109.8682,Montana,palladium:Pd;platinum,cmp-sibanye
Eagle Mine,,,Michigan,nickel,cmp-lundin
`)

	result, err := h.Handle(context.Background(), path, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Errors)
	require.Len(t, store.SavedIDs, 2)

	saved, err := store.FindFacilityByID(context.Background(), store.SavedIDs[0])
	require.NoError(t, err)
	assert.Equal(t, "Stillwater Mine", saved.Name)
	assert.Equal(t, "stillwater-mine", saved.CanonicalSlug)
	assert.Equal(t, "Stillwater Mine", saved.CanonicalName)
	assert.True(t, strings.HasPrefix(saved.FacilityID, "fac-"))
	require.NotNil(t, saved.Location)
	assert.Equal(t, entities.PrecisionSite, saved.Location.Precision)
	assert.Equal(t, entities.VerificationCSV, saved.Verification.Status)
	require.NotNil(t, saved.OperatorLink)
	assert.Equal(t, "cmp-sibanye", saved.OperatorLink.CompanyID)
}

func TestImportHandler_ImportsJSON(t *testing.T) {
	store := mocks.NewCorpusStore()
	h := newTestImportHandler(store)

	path := writeTempFile(t, "facilities.json", `[
		{"facility_id": "fac-custom", "name": "Eagle Mine", "country_iso3": "USA"}
	]`)

	result, err := h.Handle(context.Background(), path, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	saved, err := store.FindFacilityByID(context.Background(), "fac-custom")
	require.NoError(t, err)
	assert.Equal(t, "Eagle Mine", saved.Name)
}

func TestImportHandler_HoldsBackDuplicates(t *testing.T) {
	store := mocks.NewCorpusStore()
	store.Seed(&entities.Facility{FacilityID: "fac-existing", Name: "Stillwater Mine"})
	h := newTestImportHandler(store)

	path := writeTempFile(t, "facilities.csv", "name\nstillwater mine\n")

	result, err := h.Handle(context.Background(), path, ImportOptions{})
	require.NoError(t, err)

	assert.Zero(t, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Duplicates, 1)
	dup := result.Duplicates[0]
	assert.Equal(t, 2, dup.Line)
	assert.Equal(t, "fac-existing", dup.Candidate.TargetID)
	assert.Equal(t, entities.StrategyExactName, dup.Candidate.Strategy)
	assert.Empty(t, store.SavedIDs)
}

func TestImportHandler_AllowDuplicates(t *testing.T) {
	store := mocks.NewCorpusStore()
	store.Seed(&entities.Facility{FacilityID: "fac-existing", Name: "Stillwater Mine"})
	h := newTestImportHandler(store)

	path := writeTempFile(t, "facilities.csv", "name\nStillwater Mine\n")

	result, err := h.Handle(context.Background(), path, ImportOptions{AllowDuplicates: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Zero(t, result.Skipped)
	require.Len(t, store.SavedIDs, 1)
}

func TestImportHandler_ThresholdControlsHoldback(t *testing.T) {
	store := mocks.NewCorpusStore()
	store.Seed(&entities.Facility{FacilityID: "fac-existing", Name: "Stillwater Mine"})
	h := newTestImportHandler(store)

	path := writeTempFile(t, "facilities.csv", "name\nStillwater Mine\n")

	// exact_name scores 0.95; a higher threshold lets the record through.
	result, err := h.Handle(context.Background(), path, ImportOptions{DuplicateThreshold: 0.96})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestImportHandler_CatchesIntraBatchDuplicates(t *testing.T) {
	store := mocks.NewCorpusStore()
	h := newTestImportHandler(store)

	path := writeTempFile(t, "facilities.csv", "name\nEagle Mine\nEagle Mine\n")

	result, err := h.Handle(context.Background(), path, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
}

func TestImportHandler_DryRunSavesNothing(t *testing.T) {
	store := mocks.NewCorpusStore()
	h := newTestImportHandler(store)

	path := writeTempFile(t, "facilities.csv", "name\nEagle Mine\n")

	result, err := h.Handle(context.Background(), path, ImportOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, store.SavedIDs)
}

func TestImportHandler_ReportsRecordErrors(t *testing.T) {
	store := mocks.NewCorpusStore()
	h := newTestImportHandler(store)

	path := writeTempFile(t, "facilities.csv", `name,lat,lon
Good Mine,45.0,-109.0
Half Located,45.0,
Bad Latitude,95.0,-109.0
`)

	result, err := h.Handle(context.Background(), path, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Line)
	assert.Contains(t, result.Errors[0].Message, "lat and lon")
	assert.Equal(t, 4, result.Errors[1].Line)
}

func TestImportHandler_SlugsDisambiguatedWithinBatch(t *testing.T) {
	store := mocks.NewCorpusStore()
	store.Seed(&entities.Facility{FacilityID: "fac-a", Name: "Other", CanonicalSlug: "eagle-mine"})
	h := newTestImportHandler(store)

	path := writeTempFile(t, "facilities.csv", "name,region\nEagle Mine,Michigan\n")

	result, err := h.Handle(context.Background(), path, ImportOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Imported)

	require.Len(t, store.SavedIDs, 1)
	saved := store.Facilities[store.SavedIDs[0]]
	assert.Equal(t, "eagle-mine-michigan", saved.CanonicalSlug)
}

func TestImportHandler_UnsupportedFormat(t *testing.T) {
	h := newTestImportHandler(mocks.NewCorpusStore())

	_, err := h.Handle(context.Background(), "facilities.txt", ImportOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestImportHandler_MissingFile(t *testing.T) {
	h := newTestImportHandler(mocks.NewCorpusStore())

	_, err := h.Handle(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), ImportOptions{})
	assert.Error(t, err)
}

func TestImportHandler_EmptyFile(t *testing.T) {
	h := newTestImportHandler(mocks.NewCorpusStore())

	path := writeTempFile(t, "facilities.csv", "name\n")
	result, err := h.Handle(context.Background(), path, ImportOptions{})
	require.NoError(t, err)
	assert.Zero(t, result.Imported)
}
