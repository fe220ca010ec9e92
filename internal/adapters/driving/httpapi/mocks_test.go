package httpapi

import (
	"context"
	"time"

	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

type mockDocumentService struct {
	created   *domain.Document
	lastInput driving.CreateDocumentInput
	docs      []domain.Document
	stats     domain.Stats
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
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.NotFound("get " + id)
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) Stats(_ context.Context) (domain.Stats, error) {
	return m.stats, m.err
}

type mockSearchService struct {
	results   []domain.Document
	lastQuery string
	lastOpts  domain.SearchOptions
	err       error
}

func (m *mockSearchService) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.Document, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.results, m.err
}

type mockHealthService struct {
	report domain.HealthReport
}

func (m *mockHealthService) Check(context.Context) domain.HealthReport {
	return m.report
}

var (
	_ driving.DocumentService = (*mockDocumentService)(nil)
	_ driving.SearchService   = (*mockSearchService)(nil)
	_ driving.HealthService   = (*mockHealthService)(nil)
)

func healthyReport() domain.HealthReport {
	return domain.NewHealthReport([]domain.DependencyHealth{
		{Name: domain.DependencyDocumentStore, Healthy: true},
		{Name: domain.DependencyVectorIndex, Healthy: true},
	}, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
}
