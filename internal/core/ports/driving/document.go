package driving

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// CreateDocumentInput is the payload for a document upload.
type CreateDocumentInput struct {
	Filename string
	Content  string
	MimeType string
}

// DocumentService manages the document lifecycle across all stores.
type DocumentService interface {
	// Create validates, annotates and commits a document, then indexes
	// and caches it. A failure after commit returns the document with
	// IndexPending set and a nil error.
	Create(ctx context.Context, in CreateDocumentInput) (*domain.Document, error)

	// Get returns a single document.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns every document, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Delete removes a document from the index, the cache and the store,
	// in that order. Returns a not-found error if no row was removed.
	Delete(ctx context.Context, id string) error

	// Stats returns document and tag counts.
	Stats(ctx context.Context) (domain.Stats, error)
}

// HealthService probes external dependencies.
type HealthService interface {
	// Check probes every dependency. It never fails; unreachable
	// dependencies degrade the report.
	Check(ctx context.Context) domain.HealthReport
}

// Reconciler repairs documents whose vector entry is missing.
type Reconciler interface {
	// Reconcile re-indexes index-pending documents.
	Reconcile(ctx context.Context) (domain.ReconcileReport, error)
}
