// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// linesPerItem is the height of a rendered document: title, tags, summary.
const linesPerItem = 3

// DocumentList displays documents in a navigable list. Search results show
// their similarity next to the filename.
type DocumentList struct {
	docs     []domain.Document
	selected int
	title    string
	empty    string
	styles   *styles.Styles
	width    int
	height   int
}

// NewDocumentList creates a list with a header title and an empty-state message.
func NewDocumentList(s *styles.Styles, title, empty string) *DocumentList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &DocumentList{
		title:  title,
		empty:  empty,
		styles: s,
		width:  80,
		height: 10,
	}
}

// Update handles list navigation keys.
func (l *DocumentList) Update(msg tea.Msg) (*DocumentList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.docs) > 0 {
				l.selected = len(l.docs) - 1
			}
		}
	}
	return l, nil
}

// View renders the list.
func (l *DocumentList) View() string {
	if len(l.docs) == 0 {
		return l.styles.Muted.Render(l.empty)
	}

	lines := make([]string, 0, len(l.docs)*linesPerItem+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("%s (%d)", l.title, len(l.docs))), "")

	start, end := l.visibleRange()
	for i := start; i < end; i++ {
		lines = append(lines, l.renderDocument(i, &l.docs[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *DocumentList) visibleRange() (int, int) {
	visible := (l.height - 2) / linesPerItem
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.docs) {
		end = len(l.docs)
	}
	return start, end
}

func (l *DocumentList) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	maxName := l.width - 12
	if maxName < 10 {
		maxName = 10
	}
	name := truncate(doc.Filename, maxName)

	var title string
	if index == l.selected {
		title = l.styles.Selected.Render(fmt.Sprintf("%s%-*s", indicator, maxName, name))
	} else {
		title = l.styles.Normal.Render(fmt.Sprintf("%s%-*s", indicator, maxName, name))
	}
	if doc.Similarity != nil {
		title += "  " + l.styles.Similarity(*doc.Similarity)
	} else if doc.IndexPending {
		title += "  " + l.styles.Warning.Render("pending")
	}

	tags := l.styles.Tag.Render("    " + truncate(strings.Join(doc.Tags, " · "), l.width-6))
	summary := doc.Summary()
	if summary == "" {
		summary = doc.MimeType
	}
	preview := l.styles.Muted.Render("    " + truncate(summary, l.width-6))

	return title + "\n" + tags + "\n" + preview
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetDocuments replaces the list and resets the selection.
func (l *DocumentList) SetDocuments(docs []domain.Document) {
	l.docs = docs
	l.selected = 0
}

// Documents returns the listed documents.
func (l *DocumentList) Documents() []domain.Document {
	return l.docs
}

// Remove drops the document with id, keeping the selection in range.
func (l *DocumentList) Remove(id string) {
	for i := range l.docs {
		if l.docs[i].ID == id {
			l.docs = append(l.docs[:i:i], l.docs[i+1:]...)
			break
		}
	}
	if l.selected >= len(l.docs) && l.selected > 0 {
		l.selected = len(l.docs) - 1
	}
}

// Selected returns the index of the selected document.
func (l *DocumentList) Selected() int {
	return l.selected
}

// SelectedDocument returns the selected document, or nil if the list is empty.
func (l *DocumentList) SelectedDocument() *domain.Document {
	if l.selected < 0 || l.selected >= len(l.docs) {
		return nil
	}
	return &l.docs[l.selected]
}

// MoveUp moves selection up.
func (l *DocumentList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *DocumentList) MoveDown() {
	if l.selected < len(l.docs)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *DocumentList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of documents.
func (l *DocumentList) Count() int {
	return len(l.docs)
}
