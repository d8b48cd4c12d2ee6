package handlers

import (
	"context"
	"fmt"

	"github.com/minedex/minedex/internal/domain/entities"
	"github.com/minedex/minedex/internal/domain/ports"
	"github.com/minedex/minedex/internal/domain/services"
)

// MatchHandler answers ad-hoc duplicate queries against the corpus.
type MatchHandler struct {
	store   ports.CorpusStore
	matcher *services.Matcher
}

// NewMatchHandler creates a new match handler.
func NewMatchHandler(store ports.CorpusStore, matcher *services.Matcher) *MatchHandler {
	return &MatchHandler{store: store, matcher: matcher}
}

// MatchQuery describes the probe record to match.
type MatchQuery struct {
	Name        string
	Lat, Lon    *float64
	OperatorID  string
	Commodities []string
}

// MatchResult contains the ranked candidates for a probe.
type MatchResult struct {
	Candidates []entities.Candidate
	CorpusSize int
}

// Handle runs the requested strategies (all when none are given) for a
// probe record and returns the ranked candidates.
func (h *MatchHandler) Handle(ctx context.Context, query MatchQuery, strategies ...entities.Strategy) (*MatchResult, error) {
	if (query.Lat == nil) != (query.Lon == nil) {
		return nil, fmt.Errorf("lat and lon must be set together")
	}

	probe := &entities.Facility{
		FacilityID: "probe-query",
		Name:       query.Name,
	}
	if query.Lat != nil {
		probe.Location = &entities.Location{Lat: *query.Lat, Lon: *query.Lon, Precision: entities.PrecisionSite}
	}
	if query.OperatorID != "" {
		probe.OperatorLink = &entities.CompanyLink{CompanyID: query.OperatorID, Role: "operator", Confidence: 1}
	}
	for _, metal := range query.Commodities {
		probe.Commodities = append(probe.Commodities, entities.Commodity{Metal: metal})
	}

	corpus, err := h.store.ListFacilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	ranked := services.Rank(h.matcher.FindDuplicates(probe, corpus, strategies...))
	return &MatchResult{Candidates: ranked, CorpusSize: len(corpus)}, nil
}
