package mocks

import "github.com/minedex/minedex/internal/domain/entities"

// CanonicalDataset is a mock implementation of ports.CanonicalDataset.
type CanonicalDataset struct {
	Rows []entities.CanonicalEntry
}

// Entries returns all dataset rows.
func (m *CanonicalDataset) Entries() []entities.CanonicalEntry {
	return m.Rows
}

// Len returns the number of rows.
func (m *CanonicalDataset) Len() int {
	return len(m.Rows)
}
