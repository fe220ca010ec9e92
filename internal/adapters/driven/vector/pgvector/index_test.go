package pgvector

import (
	"context"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

func TestNewIndex_RejectsBadTable(t *testing.T) {
	_, err := NewIndex(context.Background(), nil, "docs; DROP TABLE x", 3)
	assert.Error(t, err)

	_, err = NewIndex(context.Background(), nil, "docs", 0)
	assert.Error(t, err)
}

func TestIndex_Postgres(t *testing.T) {
	dsn := os.Getenv("OMNIMIND_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("OMNIMIND_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS test_vectors")
	require.NoError(t, err)

	index, err := NewIndex(ctx, db, "test_vectors", 3)
	require.NoError(t, err)

	require.NoError(t, index.Upsert(ctx, domain.IndexEntry{ID: "x", Vector: []float32{1, 0, 0}}))
	require.NoError(t, index.Upsert(ctx, domain.IndexEntry{ID: "xy", Vector: []float32{1, 1, 0}}))
	assert.Error(t, index.Upsert(ctx, domain.IndexEntry{ID: "bad", Vector: []float32{1}}))

	hits, err := index.QueryTopK(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].ID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-6)

	require.NoError(t, index.Delete(ctx, "x"))
	hits, err = index.QueryTopK(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.NoError(t, index.Ping(ctx))
}
