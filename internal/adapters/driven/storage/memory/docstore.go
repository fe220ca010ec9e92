package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// The document row and its tags are written under one lock, which gives
// InsertWithTags the same all-or-nothing behaviour as a transaction.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
	}
}

// InsertWithTags stores a new document. Existing IDs are rejected.
func (s *DocumentStore) InsertWithTags(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[doc.ID]; exists {
		return domain.DuplicateID("insert "+doc.ID, nil)
	}
	s.documents[doc.ID] = cloneDocument(doc)
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneDocument(&doc)
	return &out, nil
}

// FetchMany returns the documents that exist among ids.
func (s *DocumentStore) FetchMany(_ context.Context, ids []string) (map[string]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*domain.Document, len(ids))
	for _, id := range ids {
		if doc, ok := s.documents[id]; ok {
			d := cloneDocument(&doc)
			out[id] = &d
		}
	}
	return out, nil
}

// DeleteByID removes a document.
func (s *DocumentStore) DeleteByID(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return 0, nil
	}
	delete(s.documents, id)
	return 1, nil
}

// ListAll returns all documents, newest first.
func (s *DocumentStore) ListAll(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, cloneDocument(&doc))
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// Stats counts documents, distinct tags and pending documents.
func (s *DocumentStore) Stats(_ context.Context) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tags := make(map[string]struct{})
	var stats domain.Stats
	for _, doc := range s.documents {
		stats.Documents++
		if doc.IndexPending {
			stats.IndexPending++
		}
		for _, t := range doc.Tags {
			tags[t] = struct{}{}
		}
	}
	stats.Tags = len(tags)
	return stats, nil
}

// ListIndexPending returns pending documents, oldest first.
func (s *DocumentStore) ListIndexPending(_ context.Context, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []domain.Document
	for _, doc := range s.documents {
		if doc.IndexPending {
			docs = append(docs, cloneDocument(&doc))
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// SetIndexPending updates the pending flag.
func (s *DocumentStore) SetIndexPending(_ context.Context, id string, pending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.IndexPending = pending
	s.documents[id] = doc
	return nil
}

// Ping always succeeds.
func (s *DocumentStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *DocumentStore) Close() error {
	return nil
}

// cloneDocument copies the slices and maps so callers cannot mutate stored state.
func cloneDocument(doc *domain.Document) domain.Document {
	out := *doc
	out.Tags = append([]string{}, doc.Tags...)
	if doc.Metadata != nil {
		out.Metadata = make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			out.Metadata[k] = v
		}
	}
	out.Similarity = nil
	return out
}
