package resilient

import (
	"context"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex applies a Policy to a driven.VectorIndex. Upsert and Delete
// are idempotent and retried.
type VectorIndex struct {
	next   driven.VectorIndex
	policy Policy
}

// NewVectorIndex wraps next.
func NewVectorIndex(next driven.VectorIndex, policy Policy) *VectorIndex {
	return &VectorIndex{next: next, policy: policy}
}

func (v *VectorIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	return v.policy.retry(ctx, "index upsert", func(ctx context.Context) error {
		return v.next.Upsert(ctx, entry)
	})
}

func (v *VectorIndex) QueryTopK(ctx context.Context, vector []float32, k int) ([]domain.VectorHit, error) {
	var hits []domain.VectorHit
	err := v.policy.retry(ctx, "index query", func(ctx context.Context) error {
		var err error
		hits, err = v.next.QueryTopK(ctx, vector, k)
		return err
	})
	return hits, err
}

func (v *VectorIndex) Delete(ctx context.Context, id string) error {
	return v.policy.retry(ctx, "index delete", func(ctx context.Context) error {
		return v.next.Delete(ctx, id)
	})
}

func (v *VectorIndex) Ping(ctx context.Context) error {
	return v.next.Ping(ctx)
}

func (v *VectorIndex) Close() error {
	return v.next.Close()
}
