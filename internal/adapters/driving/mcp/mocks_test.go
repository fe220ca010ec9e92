package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results   []domain.Document
	lastQuery string
	lastOpts  domain.SearchOptions
	err       error
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) ([]domain.Document, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	created   *domain.Document
	lastInput driving.CreateDocumentInput
	deleted   []string
	err       error
}

func (m *mockDocumentService) Create(_ context.Context, in driving.CreateDocumentInput) (*domain.Document, error) {
	m.lastInput = in
	if m.err != nil {
		return nil, m.err
	}
	return m.created, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.NotFound("get " + id)
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) Stats(_ context.Context) (domain.Stats, error) {
	return domain.Stats{Documents: len(m.documents)}, m.err
}

var (
	_ driving.SearchService   = (*mockSearchService)(nil)
	_ driving.DocumentService = (*mockDocumentService)(nil)
)

func testDocument(id, filename string) domain.Document {
	return domain.Document{
		ID:        id,
		Filename:  filename,
		Content:   "content of " + filename,
		MimeType:  "text/plain",
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Tags:      []string{"notes"},
		Metadata:  map[string]any{domain.MetadataSummary: "Notes about " + filename},
	}
}

func newTestServer(search *mockSearchService, docs *mockDocumentService) *Server {
	s, err := NewServer(&Ports{Search: search, Document: docs})
	if err != nil {
		panic(err)
	}
	return s
}
