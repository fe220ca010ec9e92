// Package search provides the search view: a query box over a ranked result list.
package search

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/omnimind/internal/core/domain"
	"github.com/custodia-labs/omnimind/internal/core/ports/driving"
)

// View is the search view. It is either in input mode, where keys edit
// the query, or results mode, where keys navigate the list.
type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	input   textinput.Model
	spinner spinner.Model
	list    *list.DocumentList

	searchService driving.SearchService
	ctx           context.Context
	limit         int

	lastQuery  string
	searching  bool
	focusInput bool
	err        error
	width      int
	height     int
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, searchService driving.SearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about your documents..."
	ti.CharLimit = 512
	ti.Width = 60
	ti.Focus()

	return &View{
		styles:        s,
		keymap:        km,
		input:         ti,
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(s.Subtitle)),
		list:          list.NewDocumentList(s, "Results", "No results"),
		searchService: searchService,
		ctx:           context.Background(),
		limit:         domain.DefaultSearchLimit,
		focusInput:    true,
		width:         80,
		height:        24,
	}
}

// WithContext sets the context used for searches.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor blinking.
func (v *View) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.searching {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if v.focusInput {
		switch msg.Type {
		case tea.KeyEnter:
			return v, v.submit()
		case tea.KeyEsc:
			if v.list.Count() > 0 {
				v.blurInput()
			}
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Search), key.Matches(msg, v.keymap.Back):
		v.focusInput = true
		return v, v.input.Focus()
	case key.Matches(msg, v.keymap.Select):
		if doc := v.list.SelectedDocument(); doc != nil {
			selected := *doc
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: selected, From: messages.ViewSearch}
			}
		}
		return v, nil
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

func (v *View) submit() tea.Cmd {
	query := strings.TrimSpace(v.input.Value())
	if query == "" {
		return nil
	}
	v.searching = true
	v.err = nil
	v.lastQuery = query
	return tea.Batch(v.spinner.Tick, v.performSearch(query))
}

func (v *View) performSearch(query string) tea.Cmd {
	svc, ctx, limit := v.searchService, v.ctx, v.limit
	return func() tea.Msg {
		if svc == nil {
			return messages.SearchCompleted{Query: query, Err: ErrNoSearchService}
		}
		results, err := svc.Search(ctx, query, domain.SearchOptions{Limit: limit})
		return messages.SearchCompleted{Query: query, Results: results, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Query != v.lastQuery {
		return
	}
	v.searching = false
	if msg.Err != nil {
		v.err = msg.Err
		return
	}
	v.err = nil
	v.list.SetDocuments(msg.Results)
	if len(msg.Results) > 0 {
		v.blurInput()
	}
}

func (v *View) blurInput() {
	v.focusInput = false
	v.input.Blur()
}

// View renders the search view.
func (v *View) View() string {
	sections := []string{
		lipgloss.JoinHorizontal(lipgloss.Center,
			v.styles.Title.Render("Search "),
			v.styles.InputField.Render(v.input.View())),
		"",
	}

	switch {
	case v.searching:
		sections = append(sections, v.spinner.View()+v.styles.Muted.Render(" Searching..."))
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()))
	case v.lastQuery == "":
		sections = append(sections, v.styles.Muted.Render("Type a question and press enter."))
	default:
		sections = append(sections, v.list.View())
	}
	return strings.Join(sections, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	inputWidth := width - 16
	if inputWidth < 20 {
		inputWidth = 20
	}
	v.input.Width = inputWidth
	v.list.SetDimensions(width, height-4)
}

// InputFocused reports whether keys are going to the query box.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Searching reports whether a search is in flight.
func (v *View) Searching() bool {
	return v.searching
}

// Query returns the current query text.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery replaces the query text.
func (v *View) SetQuery(q string) {
	v.input.SetValue(q)
}

// Results returns the current results.
func (v *View) Results() []domain.Document {
	return v.list.Documents()
}

// Err returns the last search error.
func (v *View) Err() error {
	return v.err
}

// Remove drops a deleted document from the results.
func (v *View) Remove(id string) {
	v.list.Remove(id)
}

// Hints returns the key hints for the current mode.
func (v *View) Hints() []key.Binding {
	if v.focusInput {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search")),
			v.keymap.NextTab,
			key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		}
	}
	return v.keymap.ResultsHelp()
}
