package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sidetrack/internal/backlog"
)

// refreshEvery is the cadence of automatic queue reloads while the TUI runs
// alongside the daemon.
const refreshEvery = 5 * time.Second

type itemsLoadedMsg struct {
	items []backlog.Item
	err   error
}

type actionDoneMsg struct {
	err error
}

type tickMsg time.Time

// Model is the backlog monitor: a live view of the queue document with
// operator actions (retry, remove) bound to keys.
type Model struct {
	store  *backlog.Store
	queue  list.Model
	help   help.Model
	keys   keyMap
	width  int
	height int
	status string
	err    error
}

// NewModel creates a new TUI model over the backlog store.
func NewModel(store *backlog.Store) *Model {
	queue := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	queue.Title = "Download Queue"
	queue.SetShowHelp(false)

	return &Model{
		store: store,
		queue: queue,
		help:  help.New(),
		keys:  newKeyMap(),
	}
}

// Init loads the queue and starts the refresh timer.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadItems(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queue.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case itemsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(msg.items))
		for i, item := range msg.items {
			items[i] = queueItem{item: item}
		}
		return m, m.queue.SetItems(items)

	case actionDoneMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Error: %v", msg.err))
			return m, nil
		}
		m.status = ""
		return m, m.loadItems()

	case tickMsg:
		return m, tea.Batch(m.loadItems(), m.tick())
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

// View renders the queue with the status line and contextual help.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	view := m.queue.View()
	if m.status != "" {
		view += "\n" + m.status
	}
	return fmt.Sprintf("%s\n\n%s", view, m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.loadItems()
	case "t":
		if item, ok := m.selected(); ok {
			if item.Status != backlog.StatusFailed {
				m.status = styles.warn.Render("Only failed items can be retried")
				return m, nil
			}
			return m, m.retryItem(item.TrackID)
		}
	case "x":
		if item, ok := m.selected(); ok {
			return m, m.removeItem(item.TrackID)
		}
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m *Model) selected() (backlog.Item, bool) {
	if qi, ok := m.queue.SelectedItem().(queueItem); ok {
		return qi.item, true
	}
	return backlog.Item{}, false
}

func (m *Model) loadItems() tea.Cmd {
	return func() tea.Msg {
		if err := m.store.Reload(); err != nil {
			return itemsLoadedMsg{err: err}
		}
		return itemsLoadedMsg{items: m.store.Items()}
	}
}

func (m *Model) retryItem(id string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.store.Retry(id)}
	}
}

func (m *Model) removeItem(id string) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{err: m.store.Remove(id)}
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
