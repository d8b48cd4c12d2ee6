package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/minedex/minedex/internal/domain/ports"
	"github.com/minedex/minedex/internal/domain/services"
)

// ResolveHandler runs a full deduplication pass over the corpus: group,
// merge, slug, commit. It is the single writer during a pass; the core
// services only produce data describing what changed.
type ResolveHandler struct {
	store  ports.CorpusStore
	merger *services.MergeEngine
	log    *zap.Logger
}

// NewResolveHandler creates a new resolve handler.
func NewResolveHandler(store ports.CorpusStore, merger *services.MergeEngine, log *zap.Logger) *ResolveHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResolveHandler{store: store, merger: merger, log: log}
}

// ResolveOptions controls resolution behavior.
type ResolveOptions struct {
	DryRun bool // Report groups and slugs without committing
}

// GroupReport describes one merged duplicate group.
type GroupReport struct {
	CanonicalID   string   `json:"canonical_id"`
	CanonicalName string   `json:"canonical_name"`
	CanonicalSlug string   `json:"canonical_slug"`
	AbsorbedIDs   []string `json:"absorbed_ids"`
	Size          int      `json:"size"`
}

// ResolveResult contains the result of a resolution pass.
type ResolveResult struct {
	CorpusSize    int
	GroupCount    int
	AbsorbedCount int
	SlugsAssigned int
	Groups        []GroupReport
}

// Handle runs the resolution pass. With DryRun set it performs the whole
// computation but commits nothing, which is safe because the merge
// engine never mutates the loaded records.
func (h *ResolveHandler) Handle(ctx context.Context, opts ResolveOptions) (*ResolveResult, error) {
	corpus, err := h.store.ListFacilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	registry := services.NewSlugRegistry()
	slugs, err := h.store.LoadSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading slugs: %w", err)
	}
	registry.LoadExisting(slugs)

	groups := h.merger.FindDuplicateGroups(corpus)

	result := &ResolveResult{CorpusSize: len(corpus), GroupCount: len(groups)}
	merged := make(map[string]bool)

	for _, group := range groups {
		canonical, absorbed := h.merger.MergeGroup(group)
		if canonical == nil {
			continue
		}
		for _, member := range group {
			merged[member.FacilityID] = true
		}

		if canonical.CanonicalSlug == "" {
			assignSlug(canonical, registry)
			result.SlugsAssigned++
		}

		if !opts.DryRun {
			if err := h.store.CommitMerge(ctx, canonical, absorbed); err != nil {
				return nil, fmt.Errorf("committing merge for %s: %w", canonical.FacilityID, err)
			}
		}

		h.log.Info("merged duplicate group",
			zap.String("canonical_id", canonical.FacilityID),
			zap.Int("absorbed", len(absorbed)))

		result.AbsorbedCount += len(absorbed)
		result.Groups = append(result.Groups, GroupReport{
			CanonicalID:   canonical.FacilityID,
			CanonicalName: canonical.CanonicalName,
			CanonicalSlug: canonical.CanonicalSlug,
			AbsorbedIDs:   absorbed,
			Size:          len(group),
		})
	}

	// Sweep: first-time records outside any group still need slugs.
	for _, fac := range corpus {
		if merged[fac.FacilityID] || fac.CanonicalSlug != "" {
			continue
		}
		// Malformed records were already warned about during grouping.
		if err := fac.Validate(); err != nil {
			continue
		}
		updated := fac.Clone()
		assignSlug(updated, registry)
		if !opts.DryRun {
			if err := h.store.SaveFacility(ctx, updated); err != nil {
				return nil, fmt.Errorf("assigning slug to %s: %w", updated.FacilityID, err)
			}
		}
		result.SlugsAssigned++
	}

	return result, nil
}
