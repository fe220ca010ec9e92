package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

func TestSearchService_EmptyQuery(t *testing.T) {
	f := newFixture()
	setErr(&f.embedder.err, errInjected)

	for _, q := range []string{"", "   "} {
		results, err := f.search.Search(context.Background(), q, domain.SearchOptions{})
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}
}

func TestSearchService_HelloWorldRanksFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.docs.Create(ctx, driving.CreateDocumentInput{
		Filename: "ledger.csv", Content: "quarterly revenue ledger entries", MimeType: "text/csv",
	})
	require.NoError(t, err)
	hello, err := f.docs.Create(ctx, helloInput())
	require.NoError(t, err)

	results, err := f.search.Search(ctx, "hello", domain.SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, hello.ID, results[0].ID)
	require.NotNil(t, results[0].Similarity)
	assert.Greater(t, *results[0].Similarity, 0.5)
}

func TestSearchService_RankingAndLimit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := f.docs.Create(ctx, driving.CreateDocumentInput{
			Filename: fmt.Sprintf("doc%d.txt", i),
			Content:  fmt.Sprintf("alpha beta gamma token%d", i),
			MimeType: "text/plain",
		})
		require.NoError(t, err)
	}

	results, err := f.search.Search(ctx, "alpha beta", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, domain.DefaultSearchLimit)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, *results[i-1].Similarity, *results[i].Similarity,
			"similarity must be non-increasing")
	}
	for _, r := range results {
		assert.LessOrEqual(t, *r.Similarity, 1.0+1e-9)
	}

	results, err = f.search.Search(ctx, "alpha beta", domain.SearchOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchService_TiesPreferNewer(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := driving.CreateDocumentInput{Filename: "same.txt", Content: "identical words here", MimeType: "text/plain"}
	older, err := f.docs.Create(ctx, in)
	require.NoError(t, err)
	newer, err := f.docs.Create(ctx, in)
	require.NoError(t, err)
	require.True(t, newer.CreatedAt.After(older.CreatedAt))

	results, err := f.search.Search(ctx, "identical words", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, *results[0].Similarity, *results[1].Similarity, 1e-9)
	assert.Equal(t, newer.ID, results[0].ID)
	assert.Equal(t, older.ID, results[1].ID)
}

func TestSearchService_SkipsAndDropsDanglingHits(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	kept, err := f.docs.Create(ctx, helloInput())
	require.NoError(t, err)
	gone, err := f.docs.Create(ctx, driving.CreateDocumentInput{
		Filename: "b.txt", Content: "hello there world", MimeType: "text/plain",
	})
	require.NoError(t, err)

	// Remove the row behind the index's back.
	n, err := f.store.DeleteByID(ctx, gone.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	results, err := f.search.Search(ctx, "hello world", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, kept.ID, results[0].ID)

	_, ok := f.rawIndex.Entry(gone.ID)
	assert.False(t, ok, "dangling entry is removed")
}

func TestSearchService_DanglingDropFailureStillSkips(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	gone, err := f.docs.Create(ctx, helloInput())
	require.NoError(t, err)
	_, err = f.store.DeleteByID(ctx, gone.ID)
	require.NoError(t, err)

	setErr(&f.index.deleteErr, errInjected)
	results, err := f.search.Search(ctx, "hello", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_Failures(t *testing.T) {
	t.Run("embedder", func(t *testing.T) {
		f := newFixture()
		setErr(&f.embedder.err, errInjected)
		_, err := f.search.Search(context.Background(), "hello", domain.SearchOptions{})
		assert.Equal(t, domain.KindEmbedding, domain.KindOf(err))
	})

	t.Run("index", func(t *testing.T) {
		f := newFixture()
		setErr(&f.index.queryErr, errInjected)
		_, err := f.search.Search(context.Background(), "hello", domain.SearchOptions{})
		assert.Equal(t, domain.KindIndex, domain.KindOf(err))
	})

	t.Run("unconfigured", func(t *testing.T) {
		svc := NewSearchService(nil, nil, nil)
		_, err := svc.Search(context.Background(), "hello", domain.SearchOptions{})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestSearchService_ResultsCarryTags(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.docs.Create(ctx, driving.CreateDocumentInput{Filename: "x.txt", Content: "a an", MimeType: "text/plain"})
	require.NoError(t, err)

	results, err := f.search.Search(ctx, "document", domain.SearchOptions{})
	require.NoError(t, err)
	for _, r := range results {
		assert.NotNil(t, r.Tags)
	}
}
