package services

import (
	"sort"

	"go.uber.org/zap"

	"github.com/minedex/minedex/internal/domain/entities"
	"github.com/minedex/minedex/internal/domain/ports"
)

// Matcher runs duplicate-detection strategies against an in-memory corpus.
// Strategies form a closed set evaluated in fixed priority order; each one
// is independently guarded so a failure in one never aborts the call, and
// missing inputs simply produce no candidates.
type Matcher struct {
	cfg        MatchingConfig
	similarity ports.StringSimilarity
	dataset    ports.CanonicalDataset
	log        *zap.Logger

	pipeline []matchStrategy
}

// NewMatcher creates a Matcher. dataset may be nil, which disables the
// cross_reference strategy for the run; all others are unaffected.
func NewMatcher(cfg MatchingConfig, similarity ports.StringSimilarity, dataset ports.CanonicalDataset, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Matcher{
		cfg:        cfg,
		similarity: similarity,
		dataset:    dataset,
		log:        log,
	}
	m.pipeline = []matchStrategy{
		exactNameStrategy{cfg: cfg},
		aliasMatchStrategy{cfg: cfg},
		locationProximityStrategy{cfg: cfg},
		companyCommodityStrategy{cfg: cfg},
		crossReferenceStrategy{cfg: cfg, similarity: similarity, dataset: dataset},
	}
	return m
}

// matchStrategy is one duplicate-detection pass over the corpus.
type matchStrategy interface {
	name() entities.Strategy
	evaluate(query *entities.Facility, corpus []*entities.Facility) []entities.Candidate
}

// FindDuplicates runs the requested strategies (all of them when none are
// given) for one query record and returns the raw candidates in strategy
// evaluation order. A malformed query record yields no candidates.
func (m *Matcher) FindDuplicates(query *entities.Facility, corpus []*entities.Facility, strategies ...entities.Strategy) []entities.Candidate {
	if err := query.Validate(); err != nil {
		m.log.Warn("skipping malformed query record", zap.Error(err))
		return nil
	}

	wanted := make(map[entities.Strategy]bool, len(strategies))
	for _, s := range strategies {
		wanted[s] = true
	}

	// Malformed corpus records never participate in matching.
	clean := make([]*entities.Facility, 0, len(corpus))
	for _, rec := range corpus {
		if err := rec.Validate(); err != nil {
			m.log.Warn("skipping malformed corpus record", zap.Error(err))
			continue
		}
		clean = append(clean, rec)
	}

	var out []entities.Candidate
	for _, strat := range m.pipeline {
		if len(strategies) > 0 && !wanted[strat.name()] {
			continue
		}
		out = append(out, m.runStrategy(strat, query, clean)...)
	}
	return out
}

// runStrategy guards a single strategy evaluation. A panic inside one
// strategy is logged and contributes nothing.
func (m *Matcher) runStrategy(strat matchStrategy, query *entities.Facility, corpus []*entities.Facility) (candidates []entities.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn("matching strategy failed",
				zap.String("strategy", string(strat.name())),
				zap.String("facility_id", query.FacilityID),
				zap.Any("panic", r))
			candidates = nil
		}
	}()
	return strat.evaluate(query, corpus)
}

// exactNameStrategy matches case-insensitive name equality.
type exactNameStrategy struct {
	cfg MatchingConfig
}

func (exactNameStrategy) name() entities.Strategy { return entities.StrategyExactName }

func (s exactNameStrategy) evaluate(query *entities.Facility, corpus []*entities.Facility) []entities.Candidate {
	key := entities.NormalizeName(query.Name)
	if key == "" {
		return nil
	}
	var out []entities.Candidate
	for _, rec := range corpus {
		if rec.FacilityID == query.FacilityID {
			continue
		}
		if entities.NormalizeName(rec.Name) == key {
			out = append(out, entities.Candidate{
				TargetID:   rec.FacilityID,
				Strategy:   entities.StrategyExactName,
				Confidence: s.cfg.ExactNameConfidence,
				Evidence:   entities.Evidence{MatchedText: rec.Name},
			})
		}
	}
	return out
}

// aliasMatchStrategy matches the query name against existing aliases.
type aliasMatchStrategy struct {
	cfg MatchingConfig
}

func (aliasMatchStrategy) name() entities.Strategy { return entities.StrategyAliasMatch }

func (s aliasMatchStrategy) evaluate(query *entities.Facility, corpus []*entities.Facility) []entities.Candidate {
	key := entities.NormalizeName(query.Name)
	if key == "" {
		return nil
	}
	var out []entities.Candidate
	for _, rec := range corpus {
		if rec.FacilityID == query.FacilityID {
			continue
		}
		for _, alias := range rec.Aliases {
			if entities.NormalizeName(alias) == key {
				out = append(out, entities.Candidate{
					TargetID:   rec.FacilityID,
					Strategy:   entities.StrategyAliasMatch,
					Confidence: s.cfg.AliasConfidence,
					Evidence:   entities.Evidence{MatchedText: alias},
				})
				break
			}
		}
	}
	return out
}

// locationProximityStrategy matches records within the proximity radius.
type locationProximityStrategy struct {
	cfg MatchingConfig
}

func (locationProximityStrategy) name() entities.Strategy { return entities.StrategyLocationProximity }

func (s locationProximityStrategy) evaluate(query *entities.Facility, corpus []*entities.Facility) []entities.Candidate {
	if !query.HasCoordinates() {
		return nil
	}

	// Batch the distance computation over every candidate with coordinates.
	located := make([]*entities.Facility, 0, len(corpus))
	lats := make([]float64, 0, len(corpus))
	lons := make([]float64, 0, len(corpus))
	for _, rec := range corpus {
		if rec.FacilityID == query.FacilityID || !rec.HasCoordinates() {
			continue
		}
		located = append(located, rec)
		lats = append(lats, rec.Location.Lat)
		lons = append(lons, rec.Location.Lon)
	}
	if len(located) == 0 {
		return nil
	}

	dists := DistancesKM(query.Location.Lat, query.Location.Lon, lats, lons)

	var out []entities.Candidate
	for i, rec := range located {
		d := dists[i]
		if d >= s.cfg.ProximityRadiusKM {
			continue
		}
		conf := s.cfg.ProximityMaxConfidence - (d/s.cfg.ProximityRadiusKM)*s.cfg.ProximityDecay
		dist := d
		out = append(out, entities.Candidate{
			TargetID:   rec.FacilityID,
			Strategy:   entities.StrategyLocationProximity,
			Confidence: conf,
			Evidence:   entities.Evidence{MatchedText: rec.Name, DistanceKM: &dist},
		})
	}
	return out
}

// companyCommodityStrategy correlates records sharing an operator and at
// least one commodity.
type companyCommodityStrategy struct {
	cfg MatchingConfig
}

func (companyCommodityStrategy) name() entities.Strategy { return entities.StrategyCompanyCommodity }

func (s companyCommodityStrategy) evaluate(query *entities.Facility, corpus []*entities.Facility) []entities.Candidate {
	if query.OperatorLink == nil || query.OperatorLink.CompanyID == "" {
		return nil
	}
	queryKeys := query.CommodityKeys()
	if len(queryKeys) == 0 {
		return nil
	}

	var out []entities.Candidate
	for _, rec := range corpus {
		if rec.FacilityID == query.FacilityID {
			continue
		}
		if rec.OperatorLink == nil || rec.OperatorLink.CompanyID != query.OperatorLink.CompanyID {
			continue
		}
		shared := sharedKeys(queryKeys, rec.CommodityKeys())
		if len(shared) == 0 {
			continue
		}

		ev := entities.Evidence{MatchedText: rec.Name, SharedCommodities: shared}
		if query.HasCoordinates() && rec.HasCoordinates() {
			d := DistanceKM(query.Location.Lat, query.Location.Lon, rec.Location.Lat, rec.Location.Lon)
			if d > s.cfg.CompanyRadiusKM {
				// Same operator far apart is almost certainly a sister site.
				continue
			}
			dist := d
			ev.DistanceKM = &dist
			out = append(out, entities.Candidate{
				TargetID:   rec.FacilityID,
				Strategy:   entities.StrategyCompanyCommodity,
				Confidence: s.cfg.CompanyMaxConfidence - (d/s.cfg.CompanyRadiusKM)*s.cfg.CompanyDecay,
				Evidence:   ev,
			})
			continue
		}

		out = append(out, entities.Candidate{
			TargetID:   rec.FacilityID,
			Strategy:   entities.StrategyCompanyCommodity,
			Confidence: s.cfg.CompanyNoCoordsConfidence,
			Evidence:   ev,
		})
	}
	return out
}

// crossReferenceStrategy matches the query name against an external
// canonical dataset; a hit counts only when the dataset entry is already
// linked (by id) to some local record.
type crossReferenceStrategy struct {
	cfg        MatchingConfig
	similarity ports.StringSimilarity
	dataset    ports.CanonicalDataset
}

func (crossReferenceStrategy) name() entities.Strategy { return entities.StrategyCrossReference }

func (s crossReferenceStrategy) evaluate(query *entities.Facility, corpus []*entities.Facility) []entities.Candidate {
	if s.dataset == nil || s.dataset.Len() == 0 || s.similarity == nil {
		return nil
	}

	// Index local records by their external reference.
	linked := make(map[string]*entities.Facility)
	for _, rec := range corpus {
		if rec.ExternalRefID != "" && rec.FacilityID != query.FacilityID {
			linked[rec.ExternalRefID] = rec
		}
	}
	if len(linked) == 0 {
		return nil
	}

	queryName := entities.NormalizeName(query.Name)
	var out []entities.Candidate
	for _, entry := range s.dataset.Entries() {
		local, ok := linked[entry.ID]
		if !ok {
			continue
		}
		score := s.similarity.Ratio(queryName, entities.NormalizeName(entry.Name)) * 100
		if score < s.cfg.CrossRefMinScore {
			continue
		}
		out = append(out, entities.Candidate{
			TargetID:   local.FacilityID,
			Strategy:   entities.StrategyCrossReference,
			Confidence: score / 100,
			Evidence:   entities.Evidence{MatchedText: entry.Name, ExternalRefID: entry.ID},
		})
	}
	return out
}

// sharedKeys returns the sorted intersection of two key sets.
func sharedKeys(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
