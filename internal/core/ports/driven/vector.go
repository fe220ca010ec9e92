package driven

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// VectorIndex provides nearest-neighbour search over document embeddings
// using cosine distance.
type VectorIndex interface {
	// Upsert inserts or replaces the entry for entry.ID.
	Upsert(ctx context.Context, entry domain.IndexEntry) error

	// QueryTopK returns up to k hits ordered by ascending distance.
	QueryTopK(ctx context.Context, vector []float32, k int) ([]domain.VectorHit, error)

	// Delete removes the entry for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
