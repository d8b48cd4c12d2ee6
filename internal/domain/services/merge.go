package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/minedex/minedex/internal/domain/entities"
	"github.com/minedex/minedex/internal/domain/ports"
)

// bucketScale buckets coordinates to one decimal degree (~11 km cells)
// as a coarse spatial pre-filter before pairwise comparison.
const bucketScale = 10.0

// MergeEngine groups duplicate records and folds each group into one
// canonical record. It performs no persistence: MergeGroup returns a
// fresh survivor copy plus the IDs the caller must delete.
type MergeEngine struct {
	cfg        MatchingConfig
	similarity ports.StringSimilarity
	log        *zap.Logger
}

// NewMergeEngine creates a MergeEngine.
func NewMergeEngine(cfg MatchingConfig, similarity ports.StringSimilarity, log *zap.Logger) *MergeEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &MergeEngine{cfg: cfg, similarity: similarity, log: log}
}

// FindDuplicateGroups partitions the corpus into duplicate groups.
// Records with coordinates are bucketed by rounded position and compared
// pairwise with the two-tier rule; records without coordinates are
// cross-checked by exact name/alias equality. Duplicate edges are closed
// transitively, so A~B and B~C puts A, B, C in one group. Output order is
// deterministic given input order. Only groups with two or more members
// are returned.
func (e *MergeEngine) FindDuplicateGroups(records []*entities.Facility) [][]*entities.Facility {
	// Malformed records never participate in merging.
	clean := make([]*entities.Facility, 0, len(records))
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			e.log.Warn("skipping malformed record in grouping", zap.Error(err))
			continue
		}
		clean = append(clean, rec)
	}

	uf := newUnionFind(len(clean))

	// Spatial pass: pairwise two-tier check inside each coordinate bucket.
	buckets := make(map[string][]int)
	var bucketKeys []string
	for i, rec := range clean {
		if !rec.HasCoordinates() {
			continue
		}
		key := fmt.Sprintf("%.1f:%.1f",
			math.Round(rec.Location.Lat*bucketScale)/bucketScale,
			math.Round(rec.Location.Lon*bucketScale)/bucketScale)
		if _, seen := buckets[key]; !seen {
			bucketKeys = append(bucketKeys, key)
		}
		buckets[key] = append(buckets[key], i)
	}
	for _, key := range bucketKeys {
		members := buckets[key]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if e.isDuplicatePair(clean[members[i]], clean[members[j]]) {
					uf.union(members[i], members[j])
				}
			}
		}
	}

	// Name pass: coordinate-free records are never caught by the spatial
	// buckets, so cross-check them against names and aliases.
	byName := make(map[string][]int)
	byAlias := make(map[string][]int)
	for i, rec := range clean {
		byName[entities.NormalizeName(rec.Name)] = append(byName[entities.NormalizeName(rec.Name)], i)
		for _, alias := range rec.Aliases {
			byAlias[entities.NormalizeName(alias)] = append(byAlias[entities.NormalizeName(alias)], i)
		}
	}
	for i, rec := range clean {
		if rec.HasCoordinates() {
			continue
		}
		key := entities.NormalizeName(rec.Name)
		for _, j := range byName[key] {
			uf.union(i, j)
		}
		for _, j := range byAlias[key] {
			uf.union(i, j)
		}
		for _, alias := range rec.Aliases {
			for _, j := range byName[entities.NormalizeName(alias)] {
				uf.union(i, j)
			}
		}
	}

	// Collect connected components, ordered by first member index.
	components := make(map[int][]*entities.Facility)
	var roots []int
	for i, rec := range clean {
		root := uf.find(i)
		if _, seen := components[root]; !seen {
			roots = append(roots, root)
		}
		components[root] = append(components[root], rec)
	}
	sort.Ints(roots)

	var groups [][]*entities.Facility
	for _, root := range roots {
		if group := components[root]; len(group) > 1 {
			groups = append(groups, group)
		}
	}
	return groups
}

// IsDuplicatePair reports whether two records satisfy either tier of the
// grouping rule. The check is symmetric.
func (e *MergeEngine) IsDuplicatePair(a, b *entities.Facility) bool {
	return e.isDuplicatePair(a, b)
}

func (e *MergeEngine) isDuplicatePair(a, b *entities.Facility) bool {
	if !a.HasCoordinates() || !b.HasCoordinates() {
		return false
	}
	dLat := math.Abs(a.Location.Lat - b.Location.Lat)
	dLon := math.Abs(a.Location.Lon - b.Location.Lon)

	sim := e.nameSimilarity(a.Name, b.Name)
	contained := nameContained(a.Name, b.Name)

	// Tier 1: very close coordinates with a lenient name check.
	if dLat < e.cfg.Tier1CoordDelta && dLon < e.cfg.Tier1CoordDelta {
		if sim > e.cfg.Tier1NameSimilarity || contained {
			return true
		}
	}
	// Tier 2: looser coordinates demand a near-identical name.
	if dLat < e.cfg.Tier2CoordDelta && dLon < e.cfg.Tier2CoordDelta {
		if sim > e.cfg.Tier2NameSimilarity || contained {
			return true
		}
	}
	return false
}

func (e *MergeEngine) nameSimilarity(a, b string) float64 {
	if e.similarity == nil {
		return 0
	}
	return e.similarity.Ratio(entities.NormalizeName(a), entities.NormalizeName(b))
}

// nameContained reports whether the shorter name appears inside the
// longer one, case-insensitively.
func nameContained(a, b string) bool {
	na, nb := entities.NormalizeName(a), entities.NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if len(na) > len(nb) {
		na, nb = nb, na
	}
	return strings.Contains(nb, na)
}

// MergeGroup folds a duplicate group into one canonical record. The
// survivor is the member with the highest completeness score (ties break
// on (country_iso3, facility_id) for reproducibility); everything useful
// from the other members is folded into a copy of it. The engine deletes
// nothing: absorbed IDs are returned for the persistence collaborator.
// A single-record group comes back unchanged with no absorbed IDs.
func (e *MergeEngine) MergeGroup(group []*entities.Facility) (*entities.Facility, []string) {
	if len(group) == 0 {
		return nil, nil
	}
	if len(group) == 1 {
		return group[0], nil
	}

	// Order members best-first; donors are folded richest-first so the
	// "richest non-null value" rule for conflicts is deterministic.
	members := append([]*entities.Facility(nil), group...)
	sort.SliceStable(members, func(i, j int) bool {
		si, sj := CompletenessScore(members[i]), CompletenessScore(members[j])
		if si != sj {
			return si > sj
		}
		if members[i].CountryISO3 != members[j].CountryISO3 {
			return members[i].CountryISO3 < members[j].CountryISO3
		}
		return members[i].FacilityID < members[j].FacilityID
	})

	survivor := members[0].Clone()
	donors := members[1:]

	absorbed := make([]string, 0, len(donors))
	for _, donor := range donors {
		absorbed = append(absorbed, donor.FacilityID)
		e.foldInto(survivor, donor)
	}

	note := fmt.Sprintf("merged duplicates: absorbed %s", strings.Join(absorbed, ", "))
	if survivor.Verification.Notes != "" {
		survivor.Verification.Notes += "\n" + note
	} else {
		survivor.Verification.Notes = note
	}

	return survivor, absorbed
}

// foldInto merges one donor record into the survivor. Survivor values win
// on conflict; donor values fill absent fields.
func (e *MergeEngine) foldInto(survivor, donor *entities.Facility) {
	// Aliases: union of alias sets plus the donor's own name, never the
	// survivor's name.
	seenAliases := make(map[string]bool, len(survivor.Aliases)+1)
	seenAliases[entities.NormalizeName(survivor.Name)] = true
	for _, a := range survivor.Aliases {
		seenAliases[entities.NormalizeName(a)] = true
	}
	addAlias := func(name string) {
		key := entities.NormalizeName(name)
		if key == "" || seenAliases[key] {
			return
		}
		seenAliases[key] = true
		survivor.Aliases = append(survivor.Aliases, name)
	}
	addAlias(donor.Name)
	for _, a := range donor.Aliases {
		addAlias(a)
	}

	// Sources: union deduplicated by (type, id).
	seenSources := make(map[string]bool, len(survivor.Sources))
	for _, s := range survivor.Sources {
		seenSources[s.DedupKey()] = true
	}
	for _, s := range donor.Sources {
		if !seenSources[s.DedupKey()] {
			seenSources[s.DedupKey()] = true
			survivor.Sources = append(survivor.Sources, s)
		}
	}

	// Commodities: union keyed by metal; an entry carrying a chemical
	// formula beats one without.
	byMetal := make(map[string]int, len(survivor.Commodities))
	for i, c := range survivor.Commodities {
		byMetal[c.Key()] = i
	}
	for _, c := range donor.Commodities {
		if i, ok := byMetal[c.Key()]; ok {
			if survivor.Commodities[i].ChemicalFormula == "" && c.ChemicalFormula != "" {
				survivor.Commodities[i].ChemicalFormula = c.ChemicalFormula
			}
			continue
		}
		byMetal[c.Key()] = len(survivor.Commodities)
		survivor.Commodities = append(survivor.Commodities, c)
	}

	// Company mentions: union keyed by name, highest confidence wins.
	byMention := make(map[string]int, len(survivor.CompanyMentions))
	for i, m := range survivor.CompanyMentions {
		byMention[entities.NormalizeName(m.Name)] = i
	}
	for _, m := range donor.CompanyMentions {
		key := entities.NormalizeName(m.Name)
		if i, ok := byMention[key]; ok {
			if m.Confidence > survivor.CompanyMentions[i].Confidence {
				survivor.CompanyMentions[i] = m
			}
			continue
		}
		byMention[key] = len(survivor.CompanyMentions)
		survivor.CompanyMentions = append(survivor.CompanyMentions, m)
	}

	// Products: union keyed by name.
	byProduct := make(map[string]bool, len(survivor.Products))
	for _, p := range survivor.Products {
		byProduct[entities.NormalizeName(p.Name)] = true
	}
	for _, p := range donor.Products {
		key := entities.NormalizeName(p.Name)
		if !byProduct[key] {
			byProduct[key] = true
			survivor.Products = append(survivor.Products, p)
		}
	}

	// Scalar conflicts: survivor wins unless absent.
	if survivor.Location == nil && donor.Location != nil {
		loc := *donor.Location
		survivor.Location = &loc
	}
	if survivor.CountryISO3 == "" {
		survivor.CountryISO3 = donor.CountryISO3
	}
	if survivor.Region == "" {
		survivor.Region = donor.Region
	}
	if survivor.Town == "" {
		survivor.Town = donor.Town
	}
	if survivor.Status == "" || survivor.Status == entities.StatusUnknown {
		if donor.Status != "" && donor.Status != entities.StatusUnknown {
			survivor.Status = donor.Status
		}
	}
	if survivor.OperatorLink == nil && donor.OperatorLink != nil {
		op := *donor.OperatorLink
		survivor.OperatorLink = &op
	}
	if len(survivor.OwnerLinks) == 0 && len(donor.OwnerLinks) > 0 {
		survivor.OwnerLinks = append([]entities.CompanyLink(nil), donor.OwnerLinks...)
	}
	if survivor.ExternalRefID == "" {
		survivor.ExternalRefID = donor.ExternalRefID
	}
	if survivor.Verification.Status == "" || survivor.Verification.Status == entities.VerificationUnknown {
		if donor.Verification.Status != "" && donor.Verification.Status != entities.VerificationUnknown {
			survivor.Verification.Status = donor.Verification.Status
			survivor.Verification.Confidence = donor.Verification.Confidence
			survivor.Verification.LastChecked = donor.Verification.LastChecked
		}
	}
}

// unionFind is a plain disjoint-set over record indexes.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// union attaches the larger root under the smaller, keeping the earliest
// input index as the component representative.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
