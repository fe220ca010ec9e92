// Package document provides a scrollable view of one document with its tags,
// summary and metadata.
package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// headerLines is the height of the title, details and separator above the viewport.
const headerLines = 7

// View shows one document.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	viewport viewport.Model
	document *domain.Document
	back     messages.ViewType
	width    int
}

// NewView creates a new document view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:   s,
		keymap:   km,
		viewport: viewport.New(80, 24-headerLines),
		back:     messages.ViewDocuments,
		width:    80,
	}
}

// SetDocument shows doc. Esc returns to back.
func (v *View) SetDocument(doc domain.Document, back messages.ViewType) {
	v.document = &doc
	v.back = back
	v.viewport.SetContent(v.wrap(doc.Content))
	v.viewport.GotoTop()
}

// Update handles scrolling and esc.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, v.keymap.Back) {
		back := v.back
		return v, func() tea.Msg { return messages.ViewChanged{View: back} }
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the document view.
func (v *View) View() string {
	if v.document == nil {
		return v.styles.Muted.Render("No document selected")
	}
	doc := v.document

	var b strings.Builder
	b.WriteString(v.styles.Title.Render(doc.Filename))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s · %s · %s",
		doc.ID, doc.MimeType, doc.CreatedAt.Format("2006-01-02 15:04"))))
	b.WriteString("\n")
	b.WriteString(v.styles.Tag.Render("Tags: " + strings.Join(doc.Tags, ", ")))
	b.WriteString("\n")
	if summary := doc.Summary(); summary != "" {
		b.WriteString(v.styles.Normal.Render("Summary: " + summary))
	}
	b.WriteString("\n")
	if extra := extraMetadata(doc.Metadata); extra != "" {
		b.WriteString(v.styles.Muted.Render(extra))
	}
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(strings.Repeat("─", max(v.width-4, 10))))
	b.WriteString("\n")
	b.WriteString(v.viewport.View())
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%3.f%%", v.viewport.ScrollPercent()*100)))
	return b.String()
}

// extraMetadata renders metadata keys other than tags and summary, sorted.
func extraMetadata(md map[string]any) string {
	keys := make([]string, 0, len(md))
	for k := range md {
		if k == domain.MetadataTags || k == domain.MetadataSummary {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, md[k]))
	}
	return strings.Join(parts, "  ")
}

// wrap hard-wraps long lines to the view width.
func (v *View) wrap(content string) string {
	width := v.width - 2
	if width < 20 {
		width = 20
	}
	var out []string
	for _, line := range strings.Split(content, "\n") {
		r := []rune(line)
		for len(r) > width {
			out = append(out, string(r[:width]))
			r = r[width:]
		}
		out = append(out, string(r))
	}
	return strings.Join(out, "\n")
}

// SetDimensions sets the view dimensions and re-wraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.viewport.Width = width
	v.viewport.Height = max(height-headerLines-2, 1)
	if v.document != nil {
		v.viewport.SetContent(v.wrap(v.document.Content))
	}
}

// Origin returns the view esc returns to.
func (v *View) Origin() messages.ViewType {
	return v.back
}

// Document returns the shown document, or nil.
func (v *View) Document() *domain.Document {
	return v.document
}

// Clear removes the document if it has id.
func (v *View) Clear(id string) {
	if v.document != nil && v.document.ID == id {
		v.document = nil
		v.viewport.SetContent("")
	}
}

// Hints returns the key hints for this view.
func (v *View) Hints() []key.Binding {
	return []key.Binding{v.keymap.Up, v.keymap.Down, v.keymap.PageDown, v.keymap.Back}
}
