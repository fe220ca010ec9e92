package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/views/document"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/omnimind/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/omnimind/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	searchView    *search.View
	documentsView *documents.View
	documentView  *document.View
	statusbar     *status.Bar

	currentView messages.ViewType
	// previousView is restored when help closes.
	previousView messages.ViewType
	health       *domain.HealthReport

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	h := help.New()
	h.ShowAll = true

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		help:          h,
		searchView:    search.NewView(s, km, ports.Search),
		documentsView: documents.NewView(s, km, ports.Document),
		documentView:  document.NewView(s, km),
		statusbar:     status.NewBar(s, km),
		currentView:   messages.ViewSearch,
	}, nil
}

// WithContext sets the context for service calls made by the views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("OmniMind"),
		a.searchView.Init(),
		a.documentsView.Load(),
		a.checkHealth(),
	)
}

func (a *App) checkHealth() tea.Cmd {
	if a.ports.Health == nil {
		return nil
	}
	svc, ctx := a.ports.Health, a.ctx
	return func() tea.Msg {
		return messages.HealthChecked{Report: svc.Check(ctx)}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.DocumentSelected:
		a.documentView.SetDocument(msg.Document, msg.From)
		a.currentView = messages.ViewDocument
		return a, nil

	case messages.SearchCompleted:
		a.searchView, cmd = a.searchView.Update(msg)
		if msg.Err != nil {
			a.statusbar.Set(status.StateError, msg.Err.Error())
		} else {
			a.statusbar.Set(status.StateInfo, fmt.Sprintf("%d results", len(msg.Results)))
		}
		return a, cmd

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		if msg.Err != nil {
			a.statusbar.Set(status.StateError, msg.Err.Error())
		}
		return a, cmd

	case messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		if msg.Err != nil {
			a.statusbar.Set(status.StateError, msg.Err.Error())
			return a, cmd
		}
		a.searchView.Remove(msg.ID)
		a.documentView.Clear(msg.ID)
		a.statusbar.Set(status.StateInfo, "Deleted "+msg.ID)
		return a, cmd

	case messages.HealthChecked:
		report := msg.Report
		a.health = &report
		return a, nil

	case messages.ErrorOccurred:
		a.statusbar.Set(status.StateError, msg.Err.Error())
		return a, nil
	}

	// Anything else (cursor blink, spinner ticks) belongs to the search view.
	a.searchView, cmd = a.searchView.Update(msg)
	return a, cmd
}

func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	if a.currentView == messages.ViewHelp {
		a.currentView = a.previousView
		return a, nil
	}

	typing := a.currentView == messages.ViewSearch && a.searchView.InputFocused()

	switch {
	case key.Matches(msg, a.keymap.NextTab):
		a.switchTab()
		return a, nil
	case !typing && key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit
	case !typing && key.Matches(msg, a.keymap.Help):
		a.previousView = a.currentView
		a.currentView = messages.ViewHelp
		return a, nil
	}

	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocument:
		a.documentView, cmd = a.documentView.Update(msg)
	case messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) switchTab() {
	if a.currentView == messages.ViewSearch {
		a.currentView = messages.ViewDocuments
	} else {
		a.currentView = messages.ViewSearch
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var body string
	switch a.currentView {
	case messages.ViewSearch:
		body = a.searchView.View()
		a.statusbar.SetHints(a.searchView.Hints())
	case messages.ViewDocuments:
		body = a.documentsView.View()
		a.statusbar.SetHints(a.documentsView.Hints())
	case messages.ViewDocument:
		body = a.documentView.View()
		a.statusbar.SetHints(a.documentView.Hints())
	case messages.ViewHelp:
		body = a.viewHelp()
		a.statusbar.SetHints(nil)
	}

	bodyHeight := a.height - 4
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return strings.Join([]string{a.header(), "", body, a.statusbar.View()}, "\n")
}

func (a *App) header() string {
	tabs := []struct {
		label string
		view  messages.ViewType
	}{
		{"Search", messages.ViewSearch},
		{"Documents", messages.ViewDocuments},
	}

	current := a.currentView
	switch current {
	case messages.ViewDocument:
		current = a.documentView.Origin()
	case messages.ViewHelp:
		current = a.previousView
	}

	parts := []string{a.styles.Title.Render("OmniMind ")}
	for _, t := range tabs {
		if current == t.view {
			parts = append(parts, a.styles.ActiveTab.Render(t.label))
		} else {
			parts = append(parts, a.styles.Tab.Render(t.label))
		}
	}
	parts = append(parts, "  ", a.healthBadge())
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (a *App) healthBadge() string {
	if a.health == nil {
		return ""
	}
	if a.health.State == domain.HealthHealthy {
		return a.styles.Success.Render("● healthy")
	}
	var down []string
	for _, d := range a.health.Dependencies {
		if !d.Healthy {
			down = append(down, d.Name)
		}
	}
	return a.styles.Error.Render("● degraded: " + strings.Join(down, ", "))
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Keys") + "\n\n" +
		a.help.View(a.keymap) + "\n\n" +
		a.styles.Muted.Render("Press any key to close.")
}

// Run starts the program in the alternate screen.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Ready reports whether the terminal size is known.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions resizes every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	body := height - 4
	a.searchView.SetDimensions(width, body)
	a.documentsView.SetDimensions(width, body)
	a.documentView.SetDimensions(width, body)
	a.statusbar.SetWidth(width)
	a.help.Width = width
}
