package entities

// Strategy identifies one duplicate-detection strategy.
type Strategy string

// The closed set of matching strategies, in evaluation priority order.
const (
	StrategyExactName         Strategy = "exact_name"
	StrategyAliasMatch        Strategy = "alias_match"
	StrategyLocationProximity Strategy = "location_proximity"
	StrategyCompanyCommodity  Strategy = "company_commodity"
	StrategyCrossReference    Strategy = "cross_reference"
)

// AllStrategies returns every strategy in evaluation priority order.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyExactName,
		StrategyAliasMatch,
		StrategyLocationProximity,
		StrategyCompanyCommodity,
		StrategyCrossReference,
	}
}

// Priority returns the strategy's rank in the fixed evaluation order,
// lower is stronger. Unknown strategies sort last.
func (s Strategy) Priority() int {
	switch s {
	case StrategyExactName:
		return 0
	case StrategyAliasMatch:
		return 1
	case StrategyLocationProximity:
		return 2
	case StrategyCompanyCommodity:
		return 3
	case StrategyCrossReference:
		return 4
	}
	return 5
}

// Evidence carries the concrete facts behind a candidate match.
type Evidence struct {
	MatchedText       string   `json:"matched_text,omitempty"`
	DistanceKM        *float64 `json:"distance_km,omitempty"`
	SharedCommodities []string `json:"shared_commodities,omitempty"`
	ExternalRefID     string   `json:"external_ref_id,omitempty"`
}

// Candidate is one scored duplicate suggestion produced by a strategy.
// Rank is 1-based and assigned by the ranker.
type Candidate struct {
	TargetID   string   `json:"target_id"`
	Strategy   Strategy `json:"strategy"`
	Confidence float64  `json:"confidence"`
	Rank       int      `json:"rank,omitempty"`
	Evidence   Evidence `json:"evidence"`
}

// CanonicalEntry is one row of the external canonical dataset used by
// the cross_reference strategy. The dataset is matching evidence only;
// the corpus never owns or mutates its entries.
type CanonicalEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	Commodities []string `json:"commodities,omitempty"`
	CompanyID   string   `json:"company_id,omitempty"`
}

// MergeOutcome describes the result of folding one duplicate group.
// Canonical is a copy; the caller persists it and deletes AbsorbedIDs.
type MergeOutcome struct {
	Canonical   *Facility `json:"canonical"`
	AbsorbedIDs []string  `json:"absorbed_ids"`
}
