package services

import (
	"sort"

	"github.com/minedex/minedex/internal/domain/entities"
)

// Rank deduplicates candidates by target and orders them into a single
// ranked list. For each target the maximum confidence across strategies
// wins; on equal confidence the earlier strategy in the evaluation order
// wins, then insertion order. The result carries 1-based Rank fields.
// Rank is pure: it never mutates its input.
func Rank(candidates []entities.Candidate) []entities.Candidate {
	type scored struct {
		entities.Candidate
		index int
	}

	best := make(map[string]scored, len(candidates))
	for i, c := range candidates {
		cur, ok := best[c.TargetID]
		if !ok || better(c, i, cur.Candidate, cur.index) {
			best[c.TargetID] = scored{Candidate: c, index: i}
		}
	}

	out := make([]scored, 0, len(best))
	for _, s := range best {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return better(out[i].Candidate, out[i].index, out[j].Candidate, out[j].index)
	})

	ranked := make([]entities.Candidate, len(out))
	for i, s := range out {
		ranked[i] = s.Candidate
		ranked[i].Rank = i + 1
	}
	return ranked
}

// better reports whether candidate a (at insertion index ai) outranks b.
func better(a entities.Candidate, ai int, b entities.Candidate, bi int) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if pa, pb := a.Strategy.Priority(), b.Strategy.Priority(); pa != pb {
		return pa < pb
	}
	return ai < bi
}
