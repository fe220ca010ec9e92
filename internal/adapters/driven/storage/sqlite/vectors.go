package sqlite

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/vec/search"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex with a full scan over the
// vectors table. It suits the single-node deployments SQLite targets.
type vectorIndex struct {
	store      *Store
	dimensions int
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

type vectorRow struct {
	ID        string `db:"id"`
	Embedding []byte `db:"embedding"`
}

// Upsert inserts or replaces the entry.
func (v *vectorIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	if err := v.checkDimensions(len(entry.Vector)); err != nil {
		return err
	}

	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshalling vector metadata: %w", err)
	}

	_, err = v.store.db.ExecContext(ctx, `
		INSERT INTO vectors (id, dimensions, embedding, text, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			dimensions = excluded.dimensions,
			embedding = excluded.embedding,
			text = excluded.text,
			metadata = excluded.metadata
	`, entry.ID, len(entry.Vector), encodeVector(entry.Vector), entry.Text, string(metadataJSON))
	if err != nil {
		return fmt.Errorf("upserting vector: %w", err)
	}
	return nil
}

// QueryTopK scans all vectors and returns the k nearest by cosine distance.
func (v *vectorIndex) QueryTopK(ctx context.Context, vector []float32, k int) ([]domain.VectorHit, error) {
	if k <= 0 {
		return []domain.VectorHit{}, nil
	}
	if err := v.checkDimensions(len(vector)); err != nil {
		return nil, err
	}

	rows, err := v.store.db.QueryxContext(ctx,
		"SELECT id, embedding FROM vectors WHERE dimensions = ?", len(vector))
	if err != nil {
		return nil, fmt.Errorf("scanning vectors: %w", err)
	}
	defer rows.Close()

	query := search.Float32s(vector)
	queryMag := query.Magnitude()

	hits := []domain.VectorHit{}
	for rows.Next() {
		var row vectorRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("reading vector: %w", err)
		}
		stored, err := decodeVector(row.Embedding)
		if err != nil {
			return nil, fmt.Errorf("decoding vector %s: %w", row.ID, err)
		}
		hits = append(hits, domain.VectorHit{ID: row.ID, Distance: distance(query, queryMag, stored)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
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

// Delete removes the entry. Missing IDs are ignored.
func (v *vectorIndex) Delete(ctx context.Context, id string) error {
	if _, err := v.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	return nil
}

func (v *vectorIndex) Ping(ctx context.Context) error {
	return v.store.Ping(ctx)
}

// Close is a no-op; the owning Store closes the connection.
func (v *vectorIndex) Close() error {
	return nil
}

func (v *vectorIndex) checkDimensions(n int) error {
	if n == 0 {
		return domain.Validation("vector", errors.New("empty vector"))
	}
	if v.dimensions > 0 && n != v.dimensions {
		return domain.Validation("vector", fmt.Errorf("vector has %d dimensions, index expects %d", n, v.dimensions))
	}
	return nil
}

// distance treats zero vectors as orthogonal to everything.
func distance(query search.Float32s, queryMag float32, stored search.Float32s) float64 {
	storedMag := stored.Magnitude()
	if queryMag == 0 || storedMag == 0 {
		return 1
	}
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(stored[i])
	}
	return 1 - dot/(float64(queryMag)*float64(storedMag))
}

// encodeVector stores float32 values as little-endian IEEE 754 words.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) (search.Float32s, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 4", len(data))
	}
	vec := make(search.Float32s, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
