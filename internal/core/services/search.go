package services

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService answers semantic queries: embed, query the vector index,
// then hydrate hits from the document store in the index's rank order.
type SearchService struct {
	docStore         driven.DocumentStore
	vectorIndex      driven.VectorIndex
	embeddingService driven.EmbeddingService
}

// NewSearchService creates a new search service.
func NewSearchService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embeddingService driven.EmbeddingService,
) *SearchService {
	return &SearchService{
		docStore:         docStore,
		vectorIndex:      vectorIndex,
		embeddingService: embeddingService,
	}
}

// Search returns up to opts.Limit documents ordered by descending
// similarity, ties broken by newer creation time. Index hits whose
// document row is gone are skipped and logged.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.Document, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	// Return empty for empty query
	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.Document{}, nil
	}

	if s.embeddingService == nil {
		return nil, domain.Embedding("search", domain.ErrEmbeddingUnavailable)
	}
	if s.vectorIndex == nil {
		return nil, domain.Index("search", domain.ErrVectorIndexUnavailable)
	}

	limit := opts.EffectiveLimit()

	// 1. EMBED QUERY
	vector, err := s.embeddingService.Embed(ctx, query)
	if err != nil {
		return nil, domain.Embedding("search", err)
	}

	// 2. NEAREST NEIGHBOURS
	hits, err := s.vectorIndex.QueryTopK(ctx, vector, limit)
	if err != nil {
		return nil, domain.Index("search", err)
	}
	logger.Debug("Vector index returned %d hits", len(hits))
	if len(hits) == 0 {
		return []domain.Document{}, nil
	}

	// 3. HYDRATE
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	docs, err := s.docStore.FetchMany(ctx, ids)
	if err != nil {
		return nil, persistenceError("search", err)
	}

	// 4. ATTACH SIMILARITY IN RANK ORDER
	results := make([]domain.Document, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.ID]; dup {
			continue
		}
		seen[h.ID] = struct{}{}

		doc, ok := docs[h.ID]
		if !ok {
			logger.Warn("Vector index references missing document %s, skipping", h.ID)
			s.dropDangling(ctx, h.ID)
			continue
		}
		similarity := h.Similarity()
		out := *doc
		out.Similarity = &similarity
		if out.Tags == nil {
			out.Tags = []string{}
		}
		results = append(results, out)
	}

	sort.SliceStable(results, func(i, j int) bool {
		si, sj := *results[i].Similarity, *results[j].Similarity
		if si != sj {
			return si > sj
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})

	logger.Debug("Returning %d results", len(results))
	return results, nil
}

// dropDangling removes an index entry that has no backing document.
// Delete is idempotent so a racing create is unaffected: its entry is
// written only after its row is committed.
func (s *SearchService) dropDangling(ctx context.Context, id string) {
	if err := s.vectorIndex.Delete(ctx, id); err != nil {
		logger.Warn("Failed to drop dangling vector %s: %v", id, err)
	}
}
