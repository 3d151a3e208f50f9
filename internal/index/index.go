package index

import "github.com/starford/lumina/internal/models"

// EntryIndex defines the interface for entry indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type EntryIndex interface {
	Reconcile(entries []models.Entry, rev string) (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Revision() (string, error)
	Close() error
}

// Verify *DB satisfies EntryIndex at compile time.
var _ EntryIndex = (*DB)(nil)
