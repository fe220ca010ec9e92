package driven

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// DocumentStore persists documents and their tags. It is the single
// source of truth for whether a document exists.
type DocumentStore interface {
	// InsertWithTags inserts the document row and one row per tag in a
	// single transaction. A primary-key collision fails with a
	// domain.ErrDuplicateID error and never overwrites.
	InsertWithTags(ctx context.Context, doc *domain.Document) error

	// Get returns a single document, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// FetchMany returns the documents that exist among ids, keyed by ID.
	// Missing IDs are simply absent from the map.
	FetchMany(ctx context.Context, ids []string) (map[string]*domain.Document, error)

	// DeleteByID removes a document and its tags, returning rows affected.
	DeleteByID(ctx context.Context, id string) (int64, error)

	// ListAll returns every document, newest first.
	ListAll(ctx context.Context) ([]domain.Document, error)

	// Stats returns document, distinct tag and index-pending counts.
	Stats(ctx context.Context) (domain.Stats, error)

	// ListIndexPending returns up to limit index-pending documents, oldest first.
	ListIndexPending(ctx context.Context, limit int) ([]domain.Document, error)

	// SetIndexPending sets or clears the index-pending flag.
	SetIndexPending(ctx context.Context, id string, pending bool) error

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
