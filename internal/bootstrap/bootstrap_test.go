package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/custodia-labs/omnimind/internal/adapters/driven/cache/redis"
	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

func sqliteSettings(t *testing.T) domain.Settings {
	t.Helper()
	s := domain.DefaultSettings()
	s.Store.DataDir = t.TempDir()
	return s
}

func memorySettings() domain.Settings {
	s := domain.DefaultSettings()
	s.Store.Backend = domain.StoreMemory
	s.Vector.Backend = domain.VectorMemory
	return s
}

func TestNew_RejectsInvalidSettings(t *testing.T) {
	s := memorySettings()
	s.Vector.Backend = domain.VectorSQLite

	_, err := New(context.Background(), s, Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	app, err := New(ctx, sqliteSettings(t), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close()) })

	doc, err := app.Documents.Create(ctx, driving.CreateDocumentInput{
		Filename: "a.txt",
		Content:  "hello world",
		MimeType: "text/plain",
	})
	require.NoError(t, err)
	assert.False(t, doc.IndexPending)
	assert.NotEmpty(t, doc.Tags)
	assert.Equal(t, "hello world", doc.Metadata[domain.MetadataSummary])

	_, err = app.Documents.Create(ctx, driving.CreateDocumentInput{
		Filename: "b.txt",
		Content:  "quarterly revenue figures for accounting",
		MimeType: "text/plain",
	})
	require.NoError(t, err)

	results, err := app.Search.Search(ctx, "hello", domain.SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, doc.ID, results[0].ID)
	assert.Greater(t, *results[0].Similarity, 0.5)

	report := app.Health.Check(ctx)
	assert.Equal(t, domain.HealthHealthy, report.State)
	assert.Len(t, report.Dependencies, 4)
}

func TestNew_MemoryWithoutCache(t *testing.T) {
	s := memorySettings()
	s.Cache.Backend = domain.CacheNone

	app, err := New(context.Background(), s, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.Nil(t, app.Cache)
	report := app.Health.Check(context.Background())
	assert.Len(t, report.Dependencies, 3)
	assert.Equal(t, domain.HealthHealthy, report.State)
}

func TestNew_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)

	s := memorySettings()
	s.Cache.Backend = domain.CacheRedis
	s.Cache.RedisAddr = mr.Addr()

	ctx := context.Background()
	app, err := New(ctx, s, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	doc, err := app.Documents.Create(ctx, driving.CreateDocumentInput{
		Filename: "cached.txt",
		Content:  "cache this document please",
		MimeType: "text/plain",
	})
	require.NoError(t, err)
	assert.True(t, mr.Exists(rediscache.Key(doc.ID)))

	require.NoError(t, app.Documents.Delete(ctx, doc.ID))
	assert.False(t, mr.Exists(rediscache.Key(doc.ID)))
}

func TestNew_LLMAnnotator(t *testing.T) {
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{\"tags\":[\"Greeting\"],\"summary\":\"A hello.\"}"},"done":true}`))
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer ollama.Close()

	s := memorySettings()
	s.Annotator = domain.AnnotatorSettings{Provider: domain.AnnotatorOllama, BaseURL: ollama.URL}

	ctx := context.Background()
	app, err := New(ctx, s, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	require.NotNil(t, app.LLM)

	doc, err := app.Documents.Create(ctx, driving.CreateDocumentInput{
		Filename: "hi.txt",
		Content:  "hello there",
		MimeType: "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting"}, doc.Tags)
	assert.Equal(t, "A hello.", doc.Summary())

	report := app.Health.Check(ctx)
	assert.Equal(t, domain.HealthHealthy, report.State)
	assert.Len(t, report.Dependencies, 5)
}

func TestNew_EmbedderErrorClosesStores(t *testing.T) {
	s := sqliteSettings(t)
	s.Embedding.Provider = "word2vec"

	// Validate catches the provider first.
	_, err := New(context.Background(), s, Options{})
	assert.Error(t, err)
}

func TestApp_CloseIsIdempotent(t *testing.T) {
	app, err := New(context.Background(), memorySettings(), Options{})
	require.NoError(t, err)
	assert.NoError(t, app.Close())
	assert.NoError(t, app.Close())
}
