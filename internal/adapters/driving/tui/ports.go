// Package tui provides an interactive terminal user interface for OmniMind.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Search answers queries from the search view.
	Search driving.SearchService

	// Document lists, shows and deletes documents.
	Document driving.DocumentService

	// Health is optional; when set, the header shows dependency state.
	Health driving.HealthService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
