package services

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
	"github.com/custodia-labs/omnimind/internal/logger"
)

// Ensure ReconcileService implements the interface.
var _ driving.Reconciler = (*ReconcileService)(nil)

// DefaultReconcileBatch is the number of pending documents handled per sweep.
const DefaultReconcileBatch = 100

// ReconcileService re-indexes documents whose create committed but whose
// vector entry was never written.
type ReconcileService struct {
	docStore  driven.DocumentStore
	indexer   *indexer
	batchSize int
}

// NewReconcileService creates a reconciler. A batchSize of zero uses
// DefaultReconcileBatch.
func NewReconcileService(
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	batchSize int,
) *ReconcileService {
	if batchSize <= 0 {
		batchSize = DefaultReconcileBatch
	}
	return &ReconcileService{
		docStore:  docStore,
		indexer:   newIndexer(docStore, vectorIndex, embedder),
		batchSize: batchSize,
	}
}

// Reconcile runs one sweep over index-pending documents, oldest first.
// A failing document is counted and the sweep moves on.
func (r *ReconcileService) Reconcile(ctx context.Context) (domain.ReconcileReport, error) {
	var report domain.ReconcileReport

	pending, err := r.docStore.ListIndexPending(ctx, r.batchSize)
	if err != nil {
		return report, persistenceError("reconcile", err)
	}

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		if err := r.indexer.index(ctx, &pending[i]); err != nil {
			report.Failed++
			logger.Warn("Reconcile of %s failed: %v", pending[i].ID, err)
			continue
		}
		report.Repaired++
		logger.Debug("Reconciled %s", pending[i].ID)
	}

	if report.Scanned > 0 {
		logger.Info("Reconcile: scanned=%d repaired=%d failed=%d",
			report.Scanned, report.Repaired, report.Failed)
	}
	return report, nil
}
