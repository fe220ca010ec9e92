package driven

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// Annotator derives tags and a summary from content. Implementations
// must be stateless.
type Annotator interface {
	// Annotate returns the annotation for content of the given media type.
	Annotate(ctx context.Context, content, mimeType string) (domain.Annotation, error)
}

// IDGenerator mints document IDs.
type IDGenerator interface {
	// NewID returns a fresh identifier.
	NewID() string
}
