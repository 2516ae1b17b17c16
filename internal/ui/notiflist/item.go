package notiflist

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/forum-inbox/internal/model"
	"github.com/nhle/forum-inbox/internal/theme"
)

// Item wraps a model.Notification so it can be used in a bubbles/list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string {
	return i.Notification.Title
}

// Title returns the notification headline for the list.
func (i Item) Title() string {
	return i.Notification.Title
}

// Description returns a short summary line for the list.
func (i Item) Description() string {
	parts := []string{
		i.Notification.Content,
		humanize.Time(i.Notification.CreatedAt),
	}
	return strings.Join(parts, " | ")
}

// Delegate implements list.ItemDelegate for rendering notification rows.
type Delegate struct{}

// Height returns the number of lines each item takes.
func (d Delegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d Delegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification entry.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	descStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	prefix := "  "
	if index == m.Index() {
		titleStyle = titleStyle.Foreground(theme.ColorBlue)
		prefix = "> "
	}

	width := m.Width() - len(prefix)
	io.WriteString(w, prefix+truncate(titleStyle.Render(it.Title()), width))
	io.WriteString(w, "\n")
	io.WriteString(w, "  "+truncate(descStyle.Render(it.Description()), width))
}

// truncate clips a rendered line to the available width.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
