package resilient

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore applies a Policy to a driven.DocumentStore.
type DocumentStore struct {
	next   driven.DocumentStore
	policy Policy
}

// NewDocumentStore wraps next.
func NewDocumentStore(next driven.DocumentStore, policy Policy) *DocumentStore {
	return &DocumentStore{next: next, policy: policy}
}

// InsertWithTags runs once; see the package documentation.
func (s *DocumentStore) InsertWithTags(ctx context.Context, doc *domain.Document) error {
	return s.policy.once(ctx, func(ctx context.Context) error {
		return s.next.InsertWithTags(ctx, doc)
	})
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	var doc *domain.Document
	err := s.policy.retry(ctx, "store get", func(ctx context.Context) error {
		var err error
		doc, err = s.next.Get(ctx, id)
		return err
	})
	return doc, err
}

func (s *DocumentStore) FetchMany(ctx context.Context, ids []string) (map[string]*domain.Document, error) {
	var docs map[string]*domain.Document
	err := s.policy.retry(ctx, "store fetch", func(ctx context.Context) error {
		var err error
		docs, err = s.next.FetchMany(ctx, ids)
		return err
	})
	return docs, err
}

// DeleteByID runs once; see the package documentation.
func (s *DocumentStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	var affected int64
	err := s.policy.once(ctx, func(ctx context.Context) error {
		var err error
		affected, err = s.next.DeleteByID(ctx, id)
		return err
	})
	return affected, err
}

func (s *DocumentStore) ListAll(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.policy.retry(ctx, "store list", func(ctx context.Context) error {
		var err error
		docs, err = s.next.ListAll(ctx)
		return err
	})
	return docs, err
}

func (s *DocumentStore) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.policy.retry(ctx, "store stats", func(ctx context.Context) error {
		var err error
		stats, err = s.next.Stats(ctx)
		return err
	})
	return stats, err
}

func (s *DocumentStore) ListIndexPending(ctx context.Context, limit int) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.policy.retry(ctx, "store list pending", func(ctx context.Context) error {
		var err error
		docs, err = s.next.ListIndexPending(ctx, limit)
		return err
	})
	return docs, err
}

func (s *DocumentStore) SetIndexPending(ctx context.Context, id string, pending bool) error {
	return s.policy.retry(ctx, "store set pending", func(ctx context.Context) error {
		return s.next.SetIndexPending(ctx, id, pending)
	})
}

// Ping is passed through so health probes report the raw state.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *DocumentStore) Close() error {
	return s.next.Close()
}
