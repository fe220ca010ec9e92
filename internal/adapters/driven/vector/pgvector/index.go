// Package pgvector provides a vector index stored in PostgreSQL with the
// pgvector extension.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

var validTable = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Index stores one row per document and searches with the cosine
// distance operator (<=>).
type Index struct {
	db         *sqlx.DB
	table      string
	dimensions int
}

// NewIndex creates the extension, table and HNSW index if needed.
// The table name comes from configuration, so it is restricted to
// lower-case identifiers.
func NewIndex(ctx context.Context, db *sqlx.DB, table string, dimensions int) (*Index, error) {
	if !validTable.MatchString(table) {
		return nil, fmt.Errorf("pgvector: invalid table name %q", table)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("pgvector: dimensions must be positive")
	}

	x := &Index{db: db, table: table, dimensions: dimensions}
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id        TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			text      TEXT NOT NULL DEFAULT '',
			metadata  JSONB NOT NULL DEFAULT '{}'
		)`, table, dimensions),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)", table, table),
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("pgvector: preparing schema: %w", err)
		}
	}
	return x, nil
}

// Upsert inserts or replaces the entry.
func (x *Index) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	if len(entry.Vector) != x.dimensions {
		return domain.Validation("pgvector upsert", fmt.Errorf("vector has %d dimensions, index expects %d", len(entry.Vector), x.dimensions))
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("pgvector: marshalling metadata: %w", err)
	}

	_, err = x.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, embedding, text, metadata) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, text = EXCLUDED.text, metadata = EXCLUDED.metadata
	`, x.table), entry.ID, pgvector.NewVector(entry.Vector), entry.Text, metadata)
	if err != nil {
		return fmt.Errorf("pgvector: upsert %s: %w", entry.ID, err)
	}
	return nil
}

// QueryTopK returns the k nearest entries by cosine distance.
func (x *Index) QueryTopK(ctx context.Context, vector []float32, k int) ([]domain.VectorHit, error) {
	if k <= 0 {
		return []domain.VectorHit{}, nil
	}
	if len(vector) != x.dimensions {
		return nil, domain.Validation("pgvector query", fmt.Errorf("query has %d dimensions, index expects %d", len(vector), x.dimensions))
	}

	var rows []struct {
		ID       string  `db:"id"`
		Distance float64 `db:"distance"`
	}
	err := x.db.SelectContext(ctx, &rows, fmt.Sprintf(`
		SELECT id, embedding <=> $1 AS distance FROM %s ORDER BY embedding <=> $1, id LIMIT $2
	`, x.table), pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("pgvector: query: %w", err)
	}

	hits := make([]domain.VectorHit, len(rows))
	for i, r := range rows {
		hits[i] = domain.VectorHit{ID: r.ID, Distance: r.Distance}
	}
	return hits, nil
}

// Delete removes the entry. Missing IDs are ignored.
func (x *Index) Delete(ctx context.Context, id string) error {
	if _, err := x.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", x.table), id); err != nil {
		return fmt.Errorf("pgvector: delete %s: %w", id, err)
	}
	return nil
}

func (x *Index) Ping(ctx context.Context) error {
	return x.db.PingContext(ctx)
}

// Close is a no-op; the connection is owned by the caller.
func (x *Index) Close() error {
	return nil
}
