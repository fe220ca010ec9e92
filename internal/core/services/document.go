package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentServiceConfig tunes the coordinator.
type DocumentServiceConfig struct {
	// CacheTTL is how long created documents stay in the result cache.
	CacheTTL time.Duration

	// PostCommitTimeout bounds the index and cache steps that run after
	// the store commit, independently of the caller's context.
	PostCommitTimeout time.Duration

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultDocumentServiceConfig returns the production defaults.
func DefaultDocumentServiceConfig() DocumentServiceConfig {
	return DocumentServiceConfig{
		CacheTTL:          domain.DefaultCacheTTL,
		PostCommitTimeout: 30 * time.Second,
		Clock:             time.Now,
	}
}

// DocumentService coordinates document writes across the document store,
// the vector index and the result cache. The document store commit is the
// single point of truth for whether a create happened.
type DocumentService struct {
	docStore  driven.DocumentStore
	cache     driven.ResultCache
	annotator driven.Annotator
	ids       driven.IDGenerator
	indexer   *indexer
	config    DocumentServiceConfig
}

// NewDocumentService creates a document coordinator.
// The cache is optional; when nil, cache steps are skipped.
func NewDocumentService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	cache driven.ResultCache,
	embedder driven.EmbeddingService,
	annotator driven.Annotator,
	ids driven.IDGenerator,
	config DocumentServiceConfig,
) *DocumentService {
	defaults := DefaultDocumentServiceConfig()
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.PostCommitTimeout <= 0 {
		config.PostCommitTimeout = defaults.PostCommitTimeout
	}
	if config.Clock == nil {
		config.Clock = defaults.Clock
	}

	return &DocumentService{
		docStore:  docStore,
		cache:     cache,
		annotator: annotator,
		ids:       ids,
		indexer:   newIndexer(docStore, vectorIndex, embedder),
		config:    config,
	}
}

// Create stores a new document and indexes it.
//
// Failures before the store commit leave no state behind. Failures after
// it return the committed document with IndexPending set; the reconcile
// task repairs it later.
func (s *DocumentService) Create(ctx context.Context, in driving.CreateDocumentInput) (*domain.Document, error) {
	// 1. VALIDATE
	if strings.TrimSpace(in.Filename) == "" {
		return nil, domain.Validation("create", errors.New("filename is required"))
	}
	if strings.TrimSpace(in.MimeType) == "" {
		return nil, domain.Validation("create", errors.New("mimeType is required"))
	}

	// 2. GENERATE ID
	id := s.ids.NewID()

	// 3. ANNOTATE
	annotation, err := s.annotator.Annotate(ctx, in.Content, in.MimeType)
	if err != nil {
		return nil, domain.AnnotationFailure("create", err)
	}

	tags := dedupeTags(annotation.Tags)
	doc := &domain.Document{
		ID:        id,
		Filename:  in.Filename,
		Content:   in.Content,
		MimeType:  in.MimeType,
		CreatedAt: s.config.Clock().UTC().Truncate(time.Microsecond),
		Tags:      tags,
		Metadata: map[string]any{
			domain.MetadataTags:    tags,
			domain.MetadataSummary: annotation.Summary,
		},
		// Committed as pending so a crash before indexing is still repairable.
		IndexPending: true,
	}

	// 4. COMMIT TO DOCUMENT STORE
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	if err := s.docStore.InsertWithTags(ctx, doc); err != nil {
		return nil, persistenceError("create", err)
	}
	logger.Debug("Committed document %s (%s, %d tags)", doc.ID, doc.Filename, len(doc.Tags))

	// Steps after the commit run even if the caller has gone away.
	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PostCommitTimeout)
	defer cancel()

	// 5. EMBED AND INDEX
	if err := s.indexer.index(postCtx, doc); err != nil {
		logger.Warn("Document %s committed but not indexed, left for reconciliation: %v", doc.ID, err)
	} else {
		doc.IndexPending = false
	}

	// 6. POPULATE CACHE (best effort)
	s.putCache(postCtx, doc)

	return doc, nil
}

// Get returns a single document.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.docStore.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("get " + id)
	}
	if err != nil {
		return nil, persistenceError("get", err)
	}
	return doc, nil
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.docStore.ListAll(ctx)
	if err != nil {
		return nil, persistenceError("list", err)
	}
	for i := range docs {
		if docs[i].Tags == nil {
			docs[i].Tags = []string{}
		}
	}
	return docs, nil
}

// Delete removes a document: vector index first, then cache, then the
// document store. A dangling store row is reconcilable; a dangling index
// entry is not, so an index failure aborts before the row is touched.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Validation("delete", errors.New("id is required"))
	}

	// 1. VECTOR INDEX
	if err := s.indexer.remove(ctx, id); err != nil {
		return domain.Index("delete", err)
	}

	// 2. CACHE
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			logger.Warn("Failed to invalidate cache for %s: %v", id, err)
		}
	}

	// 3. DOCUMENT STORE
	affected, err := s.docStore.DeleteByID(ctx, id)
	if err != nil {
		return persistenceError("delete", err)
	}
	if affected == 0 {
		return domain.NotFound("delete " + id)
	}

	logger.Debug("Deleted document %s", id)
	return nil
}

// Stats returns document and tag counts.
func (s *DocumentService) Stats(ctx context.Context) (domain.Stats, error) {
	stats, err := s.docStore.Stats(ctx)
	if err != nil {
		return domain.Stats{}, persistenceError("stats", err)
	}
	return stats, nil
}

// putCache stores the document projection. Failures are logged only.
func (s *DocumentService) putCache(ctx context.Context, doc *domain.Document) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, domain.SummaryOf(doc), s.config.CacheTTL); err != nil {
		logger.Warn("Failed to cache document %s: %v", doc.ID, err)
	}
}

// persistenceError keeps typed store errors (duplicate id, not found) and
// classifies everything else as a persistence failure.
func persistenceError(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return domain.Persistence(op, err)
}

// dedupeTags removes empty and repeated tags, keeping first occurrence order.
func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
