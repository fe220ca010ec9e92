package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// ResultCache holds short-lived document projections.
// Absence of an entry is never an error.
type ResultCache interface {
	// Put stores the projection under the document ID for ttl.
	Put(ctx context.Context, summary domain.DocumentSummary, ttl time.Duration) error

	// Get returns the projection and whether it was present.
	Get(ctx context.Context, id string) (*domain.DocumentSummary, bool, error)

	// Invalidate removes the projection. Missing entries are not an error.
	Invalidate(ctx context.Context, id string) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
