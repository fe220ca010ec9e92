package document

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/omnimind/internal/core/domain"
)

func testDocument() domain.Document {
	return domain.Document{
		ID:        "doc-1",
		Filename:  "notes.txt",
		Content:   "first line\nsecond line",
		MimeType:  "text/plain",
		CreatedAt: time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC),
		Tags:      []string{"notes", "lines"},
		Metadata: map[string]any{
			domain.MetadataSummary: "Two lines of notes",
			domain.MetadataTags:    []string{"notes", "lines"},
			"source":               "upload",
		},
	}
}

func TestView_Empty(t *testing.T) {
	v := NewView(nil, nil)

	assert.Contains(t, v.View(), "No document selected")
	assert.Nil(t, v.Document())
}

func TestView_RendersDocument(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDocument(testDocument(), messages.ViewSearch)

	view := v.View()
	assert.Contains(t, view, "notes.txt")
	assert.Contains(t, view, "doc-1")
	assert.Contains(t, view, "2026-03-04 05:06")
	assert.Contains(t, view, "Tags: notes, lines")
	assert.Contains(t, view, "Summary: Two lines of notes")
	assert.Contains(t, view, "source=upload")
	assert.Contains(t, view, "first line")
	assert.Contains(t, view, "second line")
}

func TestView_EscReturnsToOrigin(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDocument(testDocument(), messages.ViewSearch)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())
}

func TestView_Scrolls(t *testing.T) {
	doc := testDocument()
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "line"
	}
	doc.Content = strings.Join(lines, "\n")

	v := NewView(nil, nil)
	v.SetDimensions(80, 20)
	v.SetDocument(doc, messages.ViewDocuments)
	require.Zero(t, v.viewport.YOffset)

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.viewport.YOffset)
}

func TestView_WrapsLongLines(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(30, 20)

	wrapped := v.wrap(strings.Repeat("x", 60))
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 28)
	}
}

func TestView_Clear(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDocument(testDocument(), messages.ViewDocuments)

	v.Clear("other")
	assert.NotNil(t, v.Document())

	v.Clear("doc-1")
	assert.Nil(t, v.Document())
}

func TestExtraMetadata(t *testing.T) {
	md := map[string]any{"b": 2, "a": "x", domain.MetadataSummary: "s", domain.MetadataTags: []string{"t"}}

	assert.Equal(t, "a=x  b=2", extraMetadata(md))
	assert.Empty(t, extraMetadata(nil))
}
