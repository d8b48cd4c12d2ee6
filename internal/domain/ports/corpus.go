package ports

import (
	"context"

	"github.com/minedex/minedex/internal/domain/entities"
)

// CorpusStore defines the persistence collaborator for facility records.
// The resolution core itself never touches storage; handlers load records
// through this interface and commit merge outcomes through it.
type CorpusStore interface {
	// EnsureSchema creates the storage schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the underlying store.
	Close() error

	// SaveFacility inserts or updates a facility record.
	SaveFacility(ctx context.Context, f *entities.Facility) error

	// FindFacilityByID returns a facility, or ErrNotFound.
	FindFacilityByID(ctx context.Context, facilityID string) (*entities.Facility, error)

	// ListFacilities returns the whole corpus ordered by facility_id.
	// Deterministic ordering matters: group formation and slug assignment
	// depend on processing order.
	ListFacilities(ctx context.Context) ([]*entities.Facility, error)

	// DeleteFacility removes a record by ID.
	DeleteFacility(ctx context.Context, facilityID string) error

	// CommitMerge persists a merge survivor and deletes the absorbed
	// records in a single transaction.
	CommitMerge(ctx context.Context, canonical *entities.Facility, absorbedIDs []string) error

	// LoadSlugs returns every canonical slug already assigned in the
	// corpus, for seeding a slug registry before a batch run.
	LoadSlugs(ctx context.Context) ([]string, error)

	// CountFacilities returns the corpus size.
	CountFacilities(ctx context.Context) (int, error)

	// CountByStatus returns facility counts grouped by operational status.
	CountByStatus(ctx context.Context) (map[string]int, error)
}
