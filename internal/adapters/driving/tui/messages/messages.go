// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewSearch is the search input and results view.
	ViewSearch ViewType = iota
	// ViewDocuments lists every stored document.
	ViewDocuments
	// ViewDocument shows one document.
	ViewDocument
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewDocument:
		return "document"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// SearchCompleted carries search results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.Document
	Err     error
}

// DocumentsLoaded carries every document and the store counts.
type DocumentsLoaded struct {
	Documents []domain.Document
	Stats     domain.Stats
	Err       error
}

// DocumentSelected opens a document. From is the view to return to.
type DocumentSelected struct {
	Document domain.Document
	From     ViewType
}

// DocumentDeleted signals a delete finished.
type DocumentDeleted struct {
	ID  string
	Err error
}

// HealthChecked carries a dependency health report.
type HealthChecked struct {
	Report domain.HealthReport
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
