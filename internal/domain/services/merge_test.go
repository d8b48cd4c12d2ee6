package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minedex/minedex/internal/domain/entities"
	"github.com/minedex/minedex/internal/infrastructure/textmatch"
)

func newTestMergeEngine() *MergeEngine {
	return NewMergeEngine(DefaultMatching(), textmatch.Levenshtein{}, nil)
}

func TestMergeEngine_IsDuplicatePair_TightCoordsLenientName(t *testing.T) {
	e := newTestMergeEngine()
	a := &entities.Facility{FacilityID: "a", Name: "Stillwater Mine", Location: sited(45.3866, -109.8682)}
	b := &entities.Facility{FacilityID: "b", Name: "Stillwater", Location: sited(45.3870, -109.8690)}

	assert.True(t, e.IsDuplicatePair(a, b))
	assert.True(t, e.IsDuplicatePair(b, a))
}

func TestMergeEngine_IsDuplicatePair_LooseCoordsStrictName(t *testing.T) {
	e := newTestMergeEngine()
	a := &entities.Facility{FacilityID: "a", Name: "Eagle Mine", Location: sited(45.00, -109.00)}
	same := &entities.Facility{FacilityID: "b", Name: "Eagle Mine", Location: sited(45.05, -109.05)}
	other := &entities.Facility{FacilityID: "c", Name: "Raven Quarry", Location: sited(45.05, -109.05)}

	assert.True(t, e.IsDuplicatePair(a, same))
	assert.False(t, e.IsDuplicatePair(a, other))
}

func TestMergeEngine_IsDuplicatePair_TooFarApart(t *testing.T) {
	e := newTestMergeEngine()
	a := &entities.Facility{FacilityID: "a", Name: "Eagle Mine", Location: sited(45.0, -109.0)}
	b := &entities.Facility{FacilityID: "b", Name: "Eagle Mine", Location: sited(45.2, -109.0)}

	assert.False(t, e.IsDuplicatePair(a, b))
}

func TestMergeEngine_IsDuplicatePair_NeedsCoordinates(t *testing.T) {
	e := newTestMergeEngine()
	a := &entities.Facility{FacilityID: "a", Name: "Eagle Mine"}
	b := &entities.Facility{FacilityID: "b", Name: "Eagle Mine", Location: sited(45.0, -109.0)}

	assert.False(t, e.IsDuplicatePair(a, b))
}

func TestMergeEngine_FindDuplicateGroups_Transitive(t *testing.T) {
	e := newTestMergeEngine()
	records := []*entities.Facility{
		{FacilityID: "a", Name: "Eagle Mine", Location: sited(45.000, -109.000)},
		{FacilityID: "b", Name: "Eagle Mine", Location: sited(45.008, -109.000)},
		{FacilityID: "c", Name: "Eagle Mine", Location: sited(45.016, -109.000)},
		{FacilityID: "d", Name: "Unrelated Quarry", Location: sited(12.0, 34.0)},
	}

	groups := e.FindDuplicateGroups(records)

	require.Len(t, groups, 1)
	require.Len(t, groups[0], 3)
	ids := []string{groups[0][0].FacilityID, groups[0][1].FacilityID, groups[0][2].FacilityID}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestMergeEngine_FindDuplicateGroups_NamePassCatchesCoordinateFree(t *testing.T) {
	e := newTestMergeEngine()
	records := []*entities.Facility{
		{FacilityID: "located", Name: "Eagle Mine", Location: sited(45.0, -109.0)},
		{FacilityID: "floating", Name: "eagle mine"},
		{FacilityID: "aliased", Name: "EM Operations", Aliases: []string{"Eagle Mine"}},
	}

	groups := e.FindDuplicateGroups(records)

	require.Len(t, groups, 1)
	require.Len(t, groups[0], 3)
}

func TestMergeEngine_FindDuplicateGroups_SingletonsExcluded(t *testing.T) {
	e := newTestMergeEngine()
	records := []*entities.Facility{
		{FacilityID: "a", Name: "Eagle Mine", Location: sited(45.0, -109.0)},
		{FacilityID: "b", Name: "Raven Quarry", Location: sited(46.0, -110.0)},
	}

	assert.Empty(t, e.FindDuplicateGroups(records))
}

func TestMergeEngine_FindDuplicateGroups_SkipsMalformed(t *testing.T) {
	e := newTestMergeEngine()
	records := []*entities.Facility{
		{FacilityID: "a", Name: "Eagle Mine", Location: sited(45.000, -109.000)},
		{FacilityID: "", Name: "Eagle Mine", Location: sited(45.001, -109.000)},
		{FacilityID: "b", Name: "Eagle Mine", Location: sited(45.002, -109.000)},
	}

	groups := e.FindDuplicateGroups(records)

	require.Len(t, groups, 1)
	require.Len(t, groups[0], 2)
}

func TestMergeEngine_FindDuplicateGroups_RepeatedRunsIdentical(t *testing.T) {
	e := newTestMergeEngine()
	records := []*entities.Facility{
		{FacilityID: "a", Name: "Stillwater Mine", Location: sited(45.500, -109.800)},
		{FacilityID: "b", Name: "Stillwater Mine", Location: sited(45.501, -109.801)},
		{FacilityID: "c", Name: "Eagle Mine", Location: sited(46.750, -87.880)},
		{FacilityID: "d", Name: "eagle mine"},
	}

	first := e.FindDuplicateGroups(records)
	second := e.FindDuplicateGroups(records)

	require.Equal(t, first, second)
	require.Len(t, first, 2)
	assert.Equal(t, "a", first[0][0].FacilityID)
	assert.Equal(t, "c", first[1][0].FacilityID)
}

func TestMergeEngine_MergeGroup_Empty(t *testing.T) {
	e := newTestMergeEngine()
	canonical, absorbed := e.MergeGroup(nil)
	assert.Nil(t, canonical)
	assert.Empty(t, absorbed)
}

func TestMergeEngine_MergeGroup_SingletonUnchanged(t *testing.T) {
	e := newTestMergeEngine()
	f := &entities.Facility{FacilityID: "a", Name: "Eagle Mine"}

	canonical, absorbed := e.MergeGroup([]*entities.Facility{f})

	assert.Same(t, f, canonical)
	assert.Empty(t, absorbed)
}

func TestMergeEngine_MergeGroup_MostCompleteSurvives(t *testing.T) {
	e := newTestMergeEngine()
	rich := &entities.Facility{
		FacilityID:   "rich",
		Name:         "Stillwater Mining Complex",
		Location:     sited(45.3866, -109.8682),
		Status:       "active",
		Commodities:  []entities.Commodity{{Metal: "Palladium"}, {Metal: "Platinum"}},
		Verification: entities.Verification{Status: entities.VerificationHuman, Confidence: 0.9},
	}
	poor := &entities.Facility{FacilityID: "poor", Name: "Stillwater Mine"}

	canonical, absorbed := e.MergeGroup([]*entities.Facility{poor, rich})

	require.NotNil(t, canonical)
	assert.Equal(t, "rich", canonical.FacilityID)
	assert.Equal(t, []string{"poor"}, absorbed)

	// The donor's name survives as an alias and the provenance note
	// records the absorption.
	assert.True(t, canonical.HasAlias("Stillwater Mine"))
	assert.Contains(t, canonical.Verification.Notes, "absorbed poor")

	// MergeGroup works on a clone; group members stay untouched.
	assert.Empty(t, rich.Aliases)
	assert.Empty(t, rich.Verification.Notes)
}

func TestMergeEngine_MergeGroup_CommodityFormulaFillsIn(t *testing.T) {
	e := newTestMergeEngine()
	survivor := &entities.Facility{
		FacilityID:   "a",
		Name:         "Eagle Mine",
		Location:     sited(45.0, -109.0),
		Commodities:  []entities.Commodity{{Metal: "Copper"}},
		Verification: entities.Verification{Confidence: 0.9},
	}
	donor := &entities.Facility{
		FacilityID:  "b",
		Name:        "Eagle Mine",
		Commodities: []entities.Commodity{{Metal: "copper", ChemicalFormula: "Cu"}, {Metal: "Nickel"}},
	}

	canonical, _ := e.MergeGroup([]*entities.Facility{survivor, donor})

	require.NotNil(t, canonical)
	require.Len(t, canonical.Commodities, 2)
	assert.Equal(t, "Copper", canonical.Commodities[0].Metal)
	assert.Equal(t, "Cu", canonical.Commodities[0].ChemicalFormula)
	assert.Equal(t, "Nickel", canonical.Commodities[1].Metal)
}

func TestMergeEngine_MergeGroup_UnionsSourcesAndMentions(t *testing.T) {
	e := newTestMergeEngine()
	survivor := &entities.Facility{
		FacilityID:      "a",
		Name:            "Eagle Mine",
		Location:        sited(45.0, -109.0),
		Sources:         []entities.SourceRef{{Type: "report", ID: "r-1"}},
		CompanyMentions: []entities.CompanyMention{{Name: "Eagle Mining Co", Confidence: 0.5}},
	}
	donor := &entities.Facility{
		FacilityID: "b",
		Name:       "Eagle Mine",
		Sources: []entities.SourceRef{
			{Type: "report", ID: "r-1"},
			{Type: "registry", ID: "g-7"},
		},
		CompanyMentions: []entities.CompanyMention{{Name: "eagle mining co", Confidence: 0.8}},
	}

	canonical, _ := e.MergeGroup([]*entities.Facility{survivor, donor})

	require.NotNil(t, canonical)
	assert.Len(t, canonical.Sources, 2)
	require.Len(t, canonical.CompanyMentions, 1)
	assert.Equal(t, 0.8, canonical.CompanyMentions[0].Confidence)
}

func TestMergeEngine_MergeGroup_DonorFillsAbsentScalars(t *testing.T) {
	e := newTestMergeEngine()
	survivor := &entities.Facility{
		FacilityID:   "a",
		Name:         "Eagle Mine",
		Location:     sited(45.0, -109.0),
		Status:       entities.StatusUnknown,
		Verification: entities.Verification{Confidence: 0.9},
	}
	donor := &entities.Facility{
		FacilityID:    "b",
		Name:          "Eagle Mine",
		CountryISO3:   "USA",
		Region:        "Michigan",
		Status:        "active",
		ExternalRefID: "dep-9",
	}

	canonical, _ := e.MergeGroup([]*entities.Facility{survivor, donor})

	require.NotNil(t, canonical)
	assert.Equal(t, "a", canonical.FacilityID)
	assert.Equal(t, "USA", canonical.CountryISO3)
	assert.Equal(t, "Michigan", canonical.Region)
	assert.Equal(t, "active", canonical.Status)
	assert.Equal(t, "dep-9", canonical.ExternalRefID)
	require.NotNil(t, canonical.Location)
	assert.Equal(t, 45.0, canonical.Location.Lat)
}

func TestMergeEngine_MergeGroup_OrderIndependent(t *testing.T) {
	e := newTestMergeEngine()
	mk := func() []*entities.Facility {
		return []*entities.Facility{
			{FacilityID: "a", Name: "Eagle Mine", Location: sited(45.0, -109.0),
				Verification: entities.Verification{Confidence: 0.9}},
			{FacilityID: "b", Name: "Eagle Mine", Aliases: []string{"EM"}},
			{FacilityID: "c", Name: "Eagle Mine East"},
		}
	}

	forward := mk()
	reversed := mk()
	reversed[0], reversed[2] = reversed[2], reversed[0]

	c1, a1 := e.MergeGroup(forward)
	c2, a2 := e.MergeGroup(reversed)

	require.NotNil(t, c1)
	require.NotNil(t, c2)
	assert.Equal(t, c1.FacilityID, c2.FacilityID)
	assert.ElementsMatch(t, a1, a2)
	assert.Equal(t, c1.Aliases, c2.Aliases)
}

func TestMergeEngine_MergeGroup_AppendsToExistingNotes(t *testing.T) {
	e := newTestMergeEngine()
	survivor := &entities.Facility{
		FacilityID:   "a",
		Name:         "Eagle Mine",
		Location:     sited(45.0, -109.0),
		Verification: entities.Verification{Confidence: 0.9, Notes: "checked against registry"},
	}
	donor := &entities.Facility{FacilityID: "b", Name: "Eagle Mine"}

	canonical, _ := e.MergeGroup([]*entities.Facility{survivor, donor})

	require.NotNil(t, canonical)
	lines := strings.Split(canonical.Verification.Notes, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "checked against registry", lines[0])
	assert.Contains(t, lines[1], "absorbed b")
}
