// Package memory provides a brute-force in-process vector index.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/vec/search"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type point struct {
	vector    search.Float32s
	magnitude float32
	entry     domain.IndexEntry
}

// Index is an exact cosine-distance index over an in-memory map.
type Index struct {
	mu         sync.RWMutex
	dimensions int
	points     map[string]point
}

// NewIndex creates an index. A dimensions value of zero accepts the size
// of the first vector inserted.
func NewIndex(dimensions int) *Index {
	return &Index{
		dimensions: dimensions,
		points:     make(map[string]point),
	}
}

// Upsert stores or replaces the entry.
func (x *Index) Upsert(_ context.Context, entry domain.IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.dimensions == 0 {
		x.dimensions = len(entry.Vector)
	}
	if len(entry.Vector) != x.dimensions {
		return domain.Validation("upsert", fmt.Errorf("vector has %d dimensions, index expects %d", len(entry.Vector), x.dimensions))
	}
	v := search.Float32s(append([]float32(nil), entry.Vector...))
	x.points[entry.ID] = point{vector: v, magnitude: v.Magnitude(), entry: entry}
	return nil
}

// QueryTopK returns the k nearest entries by cosine distance.
func (x *Index) QueryTopK(_ context.Context, vector []float32, k int) ([]domain.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if k <= 0 || len(x.points) == 0 {
		return []domain.VectorHit{}, nil
	}
	if len(vector) != x.dimensions {
		return nil, domain.Validation("query", fmt.Errorf("query has %d dimensions, index expects %d", len(vector), x.dimensions))
	}

	q := search.Float32s(vector)
	qm := q.Magnitude()
	hits := make([]domain.VectorHit, 0, len(x.points))
	for id, p := range x.points {
		hits = append(hits, domain.VectorHit{ID: id, Distance: cosineDistance(q, qm, p)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance == hits[j].Distance {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// cosineDistance treats zero vectors as orthogonal to everything.
func cosineDistance(q search.Float32s, qm float32, p point) float64 {
	if qm == 0 || p.magnitude == 0 {
		return 1
	}
	var dot float64
	for i := range q {
		dot += float64(q[i]) * float64(p.vector[i])
	}
	return 1 - dot/(float64(qm)*float64(p.magnitude))
}

// Delete removes the entry. Missing IDs are ignored.
func (x *Index) Delete(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.points, id)
	return nil
}

// Entry returns the stored entry, for inspection.
func (x *Index) Entry(id string) (domain.IndexEntry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.points[id]
	return p.entry, ok
}

// Len returns the number of entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.points)
}

// Ping always succeeds.
func (x *Index) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (x *Index) Close() error {
	return nil
}
