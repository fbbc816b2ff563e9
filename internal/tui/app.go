package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vango-dev/vstore/pkg/store"
	"github.com/vango-dev/vstore/pkg/teabind"
)

// Options configures the viewer.
type Options struct {
	// StreamURL is the devtools websocket, e.g. ws://localhost:7777/devtools/ws.
	StreamURL string

	// Store preselects a store by name.
	Store string

	// ThemeName selects the color theme.
	ThemeName string

	Logger *slog.Logger
}

const listWidth = 28

// Model is the Bubble Tea model of the viewer.
type Model struct {
	opts    Options
	binding *teabind.Binding[View]
	keys    keyMap

	theme  Theme
	styles Styles

	width    int
	height   int
	ready    bool
	showHelp bool

	view     View
	selected string
	viewport viewport.Model
}

// New creates a model observing api.
func New(api *store.Store[View], opts Options) Model {
	theme := GetTheme(opts.ThemeName)
	return Model{
		opts:     opts,
		binding:  teabind.Bind(api.External()),
		keys:     defaultKeyMap(),
		theme:    theme,
		styles:   theme.Styles(),
		view:     api.GetState(),
		selected: opts.Store,
		viewport: viewport.New(0, 0),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.binding.Wait()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(m.width-listWidth-4, 10)
		m.viewport.Height = max(m.height-4, 3)
		m.ready = true
		m.refresh()
		return m, nil

	case teabind.ChangedMsg[View]:
		m.view = msg.State
		m.refresh()
		return m, m.binding.Wait()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.binding.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.styles = m.theme.Styles()
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
	}
	return m, nil
}

// move selects the store delta positions away from the current one.
func (m *Model) move(delta int) {
	entries := m.view.Entries
	if len(entries) == 0 {
		return
	}
	i := m.selectedIndex()
	i = (i + delta + len(entries)) % len(entries)
	m.selected = entries[i].Name
	m.refresh()
	m.viewport.GotoTop()
}

// selectedIndex returns the index of the selected entry, defaulting to 0.
func (m Model) selectedIndex() int {
	for i, e := range m.view.Entries {
		if e.Name == m.selected {
			return i
		}
	}
	return 0
}

// refresh renders the selected store's state into the viewport.
func (m *Model) refresh() {
	if len(m.view.Entries) == 0 {
		m.viewport.SetContent(m.styles.MutedText.Render("No stores attached."))
		return
	}
	e := m.view.Entries[m.selectedIndex()]
	if _, ok := m.view.Entry(m.selected); !ok {
		m.selected = e.Name
	}
	if e.Error != "" {
		m.viewport.SetContent(m.styles.DangerText.Render(e.Error))
		return
	}
	m.viewport.SetContent(prettyJSON(e.State))
}

func prettyJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	list := m.styles.Panel.
		Width(listWidth).
		Height(m.viewport.Height).
		Render(m.renderList())
	state := m.styles.Panel.Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, state)

	if m.showHelp {
		body = m.renderHelp()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	status := m.styles.SuccessText.Render("● connected")
	if !m.view.Connected {
		status = m.styles.WarningText.Render("○ disconnected")
	}
	title := m.styles.AccentText.Render("vstore")
	line := fmt.Sprintf("%s  %s  %s", title, status, m.styles.MutedText.Render(m.opts.StreamURL))
	return m.styles.Header.Width(m.width).Render(line)
}

func (m Model) renderList() string {
	if len(m.view.Entries) == 0 {
		return m.styles.MutedText.Render("waiting for stores")
	}
	selected := m.selectedIndex()
	lines := make([]string, 0, len(m.view.Entries))
	for i, e := range m.view.Entries {
		line := fmt.Sprintf("%-16s %6d", truncate(e.Name, 16), e.Updates)
		if i == selected {
			lines = append(lines, m.styles.Selected.Render(line))
			continue
		}
		lines = append(lines, m.styles.Text.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	var parts []string
	if m.view.Err != "" {
		parts = append(parts, m.styles.DangerText.Render(truncate(m.view.Err, 60)))
	}
	if len(m.view.Entries) > 0 {
		e := m.view.Entries[m.selectedIndex()]
		if e.Action != "" {
			parts = append(parts, "last action "+m.styles.AccentText.Render(e.Action))
		}
		parts = append(parts, fmt.Sprintf("seq %d", e.Seq))
		if !e.UpdatedAt.IsZero() {
			parts = append(parts, e.UpdatedAt.Format(time.TimeOnly))
		}
	}
	parts = append(parts, fmt.Sprintf("%d frames", m.view.Frames), "? help")
	return m.styles.Footer.Width(m.width).Render(strings.Join(parts, "  ·  "))
}

func (m Model) renderHelp() string {
	var b strings.Builder
	for _, binding := range m.keys.help() {
		h := binding.Help()
		fmt.Fprintf(&b, "%-10s %s\n", m.styles.AccentText.Render(h.Key), h.Desc)
	}
	return m.styles.Panel.Width(max(m.width-2, 20)).Render(b.String())
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// Run starts the viewer and a Feed for opts.StreamURL.
func Run(ctx context.Context, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	api := NewViewStore(store.WithLogger(opts.Logger))
	feed := &Feed{URL: opts.StreamURL, Store: api, Logger: opts.Logger}
	go feed.Run(ctx)

	p := tea.NewProgram(New(api, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
