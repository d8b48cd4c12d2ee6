// Package mocks provides in-memory implementations of the domain ports
// for tests.
package mocks

import (
	"context"
	"errors"
	"sort"

	"github.com/minedex/minedex/internal/domain/entities"
)

// ErrNotFound mirrors the storage layer's missing-record error.
var ErrNotFound = errors.New("facility not found")

// CorpusStore is a mock implementation of ports.CorpusStore.
type CorpusStore struct {
	Facilities map[string]*entities.Facility
	Err        error

	// SavedIDs and DeletedIDs record mutations in call order.
	SavedIDs   []string
	DeletedIDs []string
}

// NewCorpusStore creates a new mock CorpusStore.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{
		Facilities: make(map[string]*entities.Facility),
	}
}

// Seed adds facilities without recording them as saves.
func (m *CorpusStore) Seed(facilities ...*entities.Facility) {
	for _, f := range facilities {
		m.Facilities[f.FacilityID] = f
	}
}

// EnsureSchema creates the storage schema if it doesn't exist.
func (m *CorpusStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close closes the store.
func (m *CorpusStore) Close() error {
	return nil
}

// SaveFacility inserts or updates a facility record.
func (m *CorpusStore) SaveFacility(_ context.Context, f *entities.Facility) error {
	if m.Err != nil {
		return m.Err
	}
	m.Facilities[f.FacilityID] = f
	m.SavedIDs = append(m.SavedIDs, f.FacilityID)
	return nil
}

// FindFacilityByID returns a facility by ID.
func (m *CorpusStore) FindFacilityByID(_ context.Context, facilityID string) (*entities.Facility, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	f, ok := m.Facilities[facilityID]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

// ListFacilities returns the corpus ordered by facility_id.
func (m *CorpusStore) ListFacilities(_ context.Context) ([]*entities.Facility, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	ids := make([]string, 0, len(m.Facilities))
	for id := range m.Facilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*entities.Facility, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.Facilities[id])
	}
	return out, nil
}

// DeleteFacility removes a facility by ID.
func (m *CorpusStore) DeleteFacility(_ context.Context, facilityID string) error {
	if m.Err != nil {
		return m.Err
	}
	delete(m.Facilities, facilityID)
	m.DeletedIDs = append(m.DeletedIDs, facilityID)
	return nil
}

// CommitMerge persists a survivor and deletes the absorbed records.
func (m *CorpusStore) CommitMerge(ctx context.Context, canonical *entities.Facility, absorbedIDs []string) error {
	if m.Err != nil {
		return m.Err
	}
	for _, id := range absorbedIDs {
		if err := m.DeleteFacility(ctx, id); err != nil {
			return err
		}
	}
	return m.SaveFacility(ctx, canonical)
}

// LoadSlugs returns every canonical slug in the corpus, sorted.
func (m *CorpusStore) LoadSlugs(_ context.Context) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var out []string
	for _, f := range m.Facilities {
		if f.CanonicalSlug != "" {
			out = append(out, f.CanonicalSlug)
		}
	}
	sort.Strings(out)
	return out, nil
}

// CountFacilities returns the corpus size.
func (m *CorpusStore) CountFacilities(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	return len(m.Facilities), nil
}

// CountByStatus returns facility counts grouped by operational status.
func (m *CorpusStore) CountByStatus(_ context.Context) (map[string]int, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]int)
	for _, f := range m.Facilities {
		status := f.Status
		if status == "" {
			status = entities.StatusUnknown
		}
		out[status]++
	}
	return out, nil
}
