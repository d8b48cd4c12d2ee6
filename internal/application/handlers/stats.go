package handlers

import (
	"context"
	"fmt"

	"github.com/minedex/minedex/internal/domain/ports"
)

// StatsHandler reports corpus-level counts.
type StatsHandler struct {
	store ports.CorpusStore
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(store ports.CorpusStore) *StatsHandler {
	return &StatsHandler{store: store}
}

// StatsResult contains corpus counts.
type StatsResult struct {
	Total    int
	ByStatus map[string]int
}

// Handle returns the corpus statistics.
func (h *StatsHandler) Handle(ctx context.Context) (*StatsResult, error) {
	total, err := h.store.CountFacilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting facilities: %w", err)
	}
	byStatus, err := h.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	return &StatsResult{Total: total, ByStatus: byStatus}, nil
}
