// Package documents provides the view listing every stored document.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

// ErrNoDocumentService indicates that no document service was provided.
var ErrNoDocumentService = errors.New("document service is required")

// View lists documents newest first. Deleting takes two keys: d, then y.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	list    *list.DocumentList
	service driving.DocumentService
	ctx     context.Context

	stats      domain.Stats
	loading    bool
	confirming *domain.Document
	err        error
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:  s,
		keymap:  km,
		list:    list.NewDocumentList(s, "Documents", "No documents yet. Upload one with: omnimind document add <path>"),
		service: service,
		ctx:     context.Background(),
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Load returns a command that fetches the documents and counts.
func (v *View) Load() tea.Cmd {
	v.loading = true
	svc, ctx := v.service, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}
		docs, err := svc.List(ctx)
		if err != nil {
			return messages.DocumentsLoaded{Err: err}
		}
		stats, err := svc.Stats(ctx)
		return messages.DocumentsLoaded{Documents: docs, Stats: stats, Err: err}
	}
}

func (v *View) deleteDocument(id string) tea.Cmd {
	svc, ctx := v.service, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{ID: id, Err: ErrNoDocumentService}
		}
		return messages.DocumentDeleted{ID: id, Err: svc.Delete(ctx, id)}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.list.SetDocuments(msg.Documents)
			v.stats = msg.Stats
		}
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = fmt.Errorf("delete %s: %w", msg.ID, msg.Err)
			return v, nil
		}
		v.err = nil
		v.list.Remove(msg.ID)
		return v, v.Load()
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.confirming != nil {
		doc := v.confirming
		v.confirming = nil
		if key.Matches(msg, v.keymap.Confirm) {
			return v, v.deleteDocument(doc.ID)
		}
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keymap.Select):
		if doc := v.list.SelectedDocument(); doc != nil {
			selected := *doc
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: selected, From: messages.ViewDocuments}
			}
		}
		return v, nil
	case key.Matches(msg, v.keymap.Delete):
		v.confirming = v.list.SelectedDocument()
		return v, nil
	case key.Matches(msg, v.keymap.Refresh):
		return v, v.Load()
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d documents · %d tags", v.stats.Documents, v.stats.Tags)))
	if v.stats.IndexPending > 0 {
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf(" · %d awaiting indexing", v.stats.IndexPending)))
	}
	b.WriteString("\n\n")

	switch {
	case v.confirming != nil:
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s? [y] yes, any other key cancels", v.confirming.Filename)))
		b.WriteString("\n\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	case v.loading && v.list.Count() == 0:
		b.WriteString(v.styles.Muted.Render("Loading..."))
		return b.String()
	}

	b.WriteString(v.list.View())
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.list.SetDimensions(width, height-4)
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document {
	return v.list.Documents()
}

// Stats returns the last loaded counts.
func (v *View) Stats() domain.Stats {
	return v.stats
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Confirming reports whether a delete is awaiting confirmation.
func (v *View) Confirming() bool {
	return v.confirming != nil
}

// Hints returns the key hints for this view.
func (v *View) Hints() []key.Binding {
	return v.keymap.DocumentsHelp()
}
