package notiflist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/forum-inbox/internal/inbox"
	"github.com/nhle/forum-inbox/internal/keys"
	"github.com/nhle/forum-inbox/internal/model"
	"github.com/nhle/forum-inbox/internal/theme"
)

// Model is the unread notification list view. It consumes the inbox's
// public surface only; all state changes arrive as inbox events routed
// through Update.
type Model struct {
	list   list.Model
	inbox  *inbox.Inbox
	keys   *keys.KeyMap
	count  int
	width  int
	height int
}

// New creates the notification list view.
func New(ib *inbox.Inbox, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.KeyMap.CursorUp = k.Up
	l.KeyMap.CursorDown = k.Down

	return Model{
		list:   l,
		inbox:  ib,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the initial snapshot.
func (m Model) Init() tea.Cmd {
	return m.inbox.LoadCmd()
}

// SetSize adjusts the view to the terminal dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}

// Count returns the current unread count.
func (m Model) Count() int {
	return m.count
}

// Update handles messages for the notification list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case inbox.SnapshotEvent:
		m.count = msg.Count
		return m, m.setItems(msg.List)

	case inbox.PushEvent:
		// Rebuild from the inbox rather than splicing locally so the
		// view always reflects the reconciled state.
		snapshot, count := m.inbox.Snapshot()
		m.count = count
		return m, m.setItems(snapshot)

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleKeys processes key input.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Open):
		if n, ok := m.selected(); ok {
			return m, m.inbox.OpenCmd(n)
		}

	case key.Matches(msg, m.keys.MarkRead):
		if n, ok := m.selected(); ok {
			return m, m.inbox.MarkReadCmd(n.ID)
		}

	case key.Matches(msg, m.keys.MarkAllRead):
		if m.count > 0 {
			return m, m.inbox.MarkAllReadCmd()
		}

	case key.Matches(msg, m.keys.Delete):
		if n, ok := m.selected(); ok {
			return m, m.inbox.DeleteCmd(n.ID)
		}

	case key.Matches(msg, m.keys.DeleteAll):
		if len(m.list.Items()) > 0 {
			return m, m.inbox.DeleteAllCmd()
		}

	case key.Matches(msg, m.keys.Refresh):
		return m, m.inbox.LoadCmd()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// selected returns the currently highlighted notification.
func (m Model) selected() (model.Notification, bool) {
	item, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return item.Notification, true
}

// setItems replaces the list contents.
func (m *Model) setItems(notifications []model.Notification) tea.Cmd {
	items := make([]list.Item, len(notifications))
	for i, n := range notifications {
		items[i] = Item{Notification: n}
	}
	return m.list.SetItems(items)
}

// View renders the list with its unread badge.
func (m Model) View() string {
	badge := ""
	if m.count > 0 {
		label := fmt.Sprintf("%d", m.count)
		if m.count > 99 {
			label = "99+"
		}
		badge = " " + theme.BadgeStyle.Render(label)
	}
	m.list.Title = "Notifications" + badge

	if len(m.list.Items()) == 0 {
		return m.list.Styles.Title.Render(m.list.Title) + "\n\n" +
			theme.HelpStyle.Render("  No new notifications")
	}
	return m.list.View()
}
