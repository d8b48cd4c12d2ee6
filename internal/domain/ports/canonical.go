package ports

import "github.com/minedex/minedex/internal/domain/entities"

// CanonicalDataset exposes an external reference dataset of known
// facilities. It backs the cross_reference strategy only; a nil dataset
// silently disables that strategy and nothing else.
type CanonicalDataset interface {
	// Entries returns all dataset rows in a stable order.
	Entries() []entities.CanonicalEntry

	// Len returns the number of rows.
	Len() int
}
