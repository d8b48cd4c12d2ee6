package services

// MatchingConfig holds the thresholds and confidence constants used by
// the candidate matcher and the merge engine. The values are empirically
// chosen and should be recalibrated against a labeled duplicate dataset
// before tightening; they are configuration, not hard-coded literals.
type MatchingConfig struct {
	// ExactNameConfidence is the fixed score for case-insensitive name equality.
	ExactNameConfidence float64
	// AliasConfidence is the fixed score for a query name matching an alias.
	AliasConfidence float64

	// ProximityRadiusKM is the cutoff for the location_proximity strategy.
	ProximityRadiusKM float64
	// ProximityMaxConfidence is the score at zero distance.
	ProximityMaxConfidence float64
	// ProximityDecay is subtracted linearly over the full radius.
	ProximityDecay float64

	// CompanyRadiusKM is the distance cutoff for company_commodity matches
	// when both records carry coordinates.
	CompanyRadiusKM float64
	// CompanyMaxConfidence is the company_commodity score at zero distance.
	CompanyMaxConfidence float64
	// CompanyDecay is subtracted linearly over CompanyRadiusKM.
	CompanyDecay float64
	// CompanyNoCoordsConfidence is the fixed score when either side lacks
	// coordinates.
	CompanyNoCoordsConfidence float64

	// CrossRefMinScore is the minimum fuzzy similarity (0-100 scale)
	// against an external canonical entry.
	CrossRefMinScore float64

	// Tier1CoordDelta / Tier1NameSimilarity are the tight pair-grouping
	// thresholds: coordinate delta on both axes, and the name similarity
	// required when neither name contains the other.
	Tier1CoordDelta     float64
	Tier1NameSimilarity float64
	// Tier2CoordDelta / Tier2NameSimilarity are the loose equivalents.
	Tier2CoordDelta     float64
	Tier2NameSimilarity float64
}

// DefaultMatching returns the matcher thresholds used in production.
func DefaultMatching() MatchingConfig {
	return MatchingConfig{
		ExactNameConfidence: 0.95,
		AliasConfidence:     0.90,

		ProximityRadiusKM:      5.0,
		ProximityMaxConfidence: 0.90,
		ProximityDecay:         0.20,

		CompanyRadiusKM:           50.0,
		CompanyMaxConfidence:      0.85,
		CompanyDecay:              0.30,
		CompanyNoCoordsConfidence: 0.60,

		CrossRefMinScore: 85.0,

		Tier1CoordDelta:     0.01,
		Tier1NameSimilarity: 0.6,
		Tier2CoordDelta:     0.1,
		Tier2NameSimilarity: 0.85,
	}
}
