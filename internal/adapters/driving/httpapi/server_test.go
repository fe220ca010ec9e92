package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/omnimind/internal/core/domain"
)

type testAPI struct {
	docs   *mockDocumentService
	search *mockSearchService
	health *mockHealthService
	server *Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	api := &testAPI{
		docs:   &mockDocumentService{},
		search: &mockSearchService{},
		health: &mockHealthService{report: healthyReport()},
	}
	s, err := NewServer(&Ports{Documents: api.docs, Search: api.search, Health: api.health}, "1.2.3")
	require.NoError(t, err)
	api.server = s
	return api
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewServer_RequiresPorts(t *testing.T) {
	_, err := NewServer(&Ports{}, "dev")
	assert.ErrorIs(t, err, ErrMissingService)
	_, err = NewServer(nil, "dev")
	assert.ErrorIs(t, err, ErrMissingService)
}

func TestRoot(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "OmniMind API", body["message"])
	assert.Equal(t, "1.2.3", body["version"])

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/nope", "").Code)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[healthResponse](t, rec)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "connected", body.Services[domain.DependencyDocumentStore])

	api.health.report = domain.NewHealthReport([]domain.DependencyHealth{
		{Name: domain.DependencyDocumentStore, Error: "dial tcp: refused"},
		{Name: domain.DependencyCache, Healthy: true},
	}, time.Now())
	rec = api.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code, "degraded is still 200")
	body = decode[healthResponse](t, rec)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable: dial tcp: refused", body.Services[domain.DependencyDocumentStore])
}

func TestStats(t *testing.T) {
	api := newTestAPI(t)
	api.docs.stats = domain.Stats{Documents: 3, Tags: 7, IndexPending: 1}

	rec := api.do(http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"documents":3,"tags":7,"indexPending":1}`, rec.Body.String())
}

func TestListDocuments(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	api.docs.docs = []domain.Document{{ID: "d1", Filename: "a.txt", Tags: []string{}}}
	rec = api.do(http.MethodGet, "/api/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decode[[]map[string]any](t, rec)
	require.Len(t, docs, 1)
	assert.Equal(t, []any{}, docs[0]["tags"])
	assert.NotContains(t, docs[0], "similarity")
}

func TestCreateDocument(t *testing.T) {
	api := newTestAPI(t)
	api.docs.created = &domain.Document{
		ID:       "d1",
		Filename: "a.txt",
		Content:  "hello world",
		MimeType: "text/plain",
		Tags:     []string{"hello", "world"},
		Metadata: map[string]any{"tags": []string{"hello", "world"}, "summary": "hello world"},
	}

	rec := api.do(http.MethodPost, "/api/documents",
		`{"filename":"a.txt","content":"hello world","mimeType":"text/plain"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "a.txt", api.docs.lastInput.Filename)
	assert.Equal(t, "text/plain", api.docs.lastInput.MimeType)

	body := decode[map[string]any](t, rec)
	meta := body["metadata"].(map[string]any)
	assert.Equal(t, "hello world", meta["summary"])
	assert.NotContains(t, body, "indexPending")
}

func TestCreateDocument_Degraded(t *testing.T) {
	api := newTestAPI(t)
	api.docs.created = &domain.Document{ID: "d1", Tags: []string{}, IndexPending: true}

	rec := api.do(http.MethodPost, "/api/documents", `{"filename":"a","content":"x","mimeType":"text/plain"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["indexPending"])
}

func TestCreateDocument_BadBodies(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/documents", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errorBody](t, rec)
	assert.Equal(t, domain.KindValidation, body.Error.Kind)

	big := `{"filename":"a","mimeType":"text/plain","content":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents", bytes.NewBufferString(big))
	rec = httptest.NewRecorder()
	api.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   domain.ErrorKind
	}{
		{domain.Validation("create", errors.New("filename is required")), http.StatusBadRequest, domain.KindValidation},
		{domain.NotFound("get x"), http.StatusNotFound, domain.KindNotFound},
		{domain.DuplicateID("insert x", nil), http.StatusConflict, domain.KindDuplicateID},
		{domain.AnnotationFailure("create", errors.New("bad")), http.StatusBadGateway, domain.KindAnnotation},
		{domain.Embedding("create", errors.New("down")), http.StatusBadGateway, domain.KindEmbedding},
		{domain.Index("search", errors.New("down")), http.StatusServiceUnavailable, domain.KindIndex},
		{domain.Persistence("create", errors.New("disk full")), http.StatusInternalServerError, domain.KindPersistence},
		{errors.New("boom"), http.StatusInternalServerError, domain.KindInternal},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			api := newTestAPI(t)
			api.docs.err = tt.err

			rec := api.do(http.MethodPost, "/api/documents", `{"filename":"a","content":"x","mimeType":"text/plain"}`)
			assert.Equal(t, tt.status, rec.Code)
			body := decode[errorBody](t, rec)
			assert.Equal(t, tt.kind, body.Error.Kind)
			assert.Equal(t, tt.err.Error(), body.Error.Message)
		})
	}
}

func TestGetDocument(t *testing.T) {
	api := newTestAPI(t)
	api.docs.docs = []domain.Document{{ID: "d1", Filename: "a.txt", Tags: []string{}}}

	rec := api.do(http.MethodGet, "/api/documents/d1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a.txt", decode[map[string]any](t, rec)["filename"])

	rec = api.do(http.MethodGet, "/api/documents/d2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteDocument(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodDelete, "/api/documents/d1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, []string{"d1"}, api.docs.deleted)

	api.docs.err = domain.NotFound("delete d9")
	rec = api.do(http.MethodDelete, "/api/documents/d9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	api := newTestAPI(t)
	sim := 0.93
	api.search.results = []domain.Document{{ID: "d1", Tags: []string{"hello"}, Similarity: &sim}}

	rec := api.do(http.MethodPost, "/api/search", `{"query":"hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", api.search.lastQuery)
	assert.Equal(t, domain.DefaultSearchLimit, api.search.lastOpts.Limit)

	results := decode[[]map[string]any](t, rec)
	require.Len(t, results, 1)
	assert.InDelta(t, 0.93, results[0]["similarity"], 1e-9)
}

func TestSearch_LimitIsCapped(t *testing.T) {
	api := newTestAPI(t)

	api.do(http.MethodPost, "/api/search", `{"query":"q","limit":50}`)
	assert.Equal(t, domain.DefaultSearchLimit, api.search.lastOpts.Limit)

	api.do(http.MethodPost, "/api/search", `{"query":"q","limit":2}`)
	assert.Equal(t, 2, api.search.lastOpts.Limit)
}

func TestSearch_EmptyResultsAreArray(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/api/search", `{"query":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSearch_EmbeddingFailure(t *testing.T) {
	api := newTestAPI(t)
	api.search.err = domain.Embedding("search", errors.New("model offline"))

	rec := api.do(http.MethodPost, "/api/search", `{"query":"hello"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestCORS(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_MountsMCP(t *testing.T) {
	var hit bool
	mcpHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hit = true
		w.WriteHeader(http.StatusAccepted)
	})
	s, err := NewServer(&Ports{
		Documents: &mockDocumentService{},
		Search:    &mockSearchService{},
		Health:    &mockHealthService{report: healthyReport()},
		MCP:       mcpHandler,
	}, "1.2.3")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`)))
	assert.True(t, hit)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestServer_NoMCPByDefault(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/mcp", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RunListenErrorWithCancelledContext(t *testing.T) {
	api := newTestAPI(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := api.server.Run(ctx, "256.0.0.1:bad")
	assert.Error(t, err)
}

func TestServer_ServeUntilCancelled(t *testing.T) {
	api := newTestAPI(t)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.server.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/health")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
