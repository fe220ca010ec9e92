package driving

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// SearchService provides semantic search to external actors.
type SearchService interface {
	// Search returns documents ranked by descending similarity to query,
	// ties broken by newer creation time. Each result carries Similarity.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Document, error)
}
