// Package app wires the credential store, API client, notification
// channel, inbox, and terminal UI together and runs the event loop.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/forum-inbox/internal/api"
	"github.com/nhle/forum-inbox/internal/channel"
	"github.com/nhle/forum-inbox/internal/credential"
	"github.com/nhle/forum-inbox/internal/inbox"
	"github.com/nhle/forum-inbox/internal/keys"
	"github.com/nhle/forum-inbox/internal/logging"
	"github.com/nhle/forum-inbox/internal/model"
	"github.com/nhle/forum-inbox/internal/store"
	"github.com/nhle/forum-inbox/internal/theme"
	"github.com/nhle/forum-inbox/internal/ui/notiflist"
)

// connStatusMsg carries a channel state transition into the UI loop.
type connStatusMsg struct {
	status channel.Status
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg      *model.AppConfig
	creds    *credential.Store
	ch       *channel.Channel
	ib       *inbox.Inbox
	view     notiflist.Model
	keys     *keys.KeyMap
	statusCh chan channel.Status
	conn     channel.Status
	toast    string
	toastErr bool
	fatal    string
	ready    bool
}

// New creates the root model around an already-wired inbox and channel.
func New(
	cfg *model.AppConfig,
	creds *credential.Store,
	ch *channel.Channel,
	ib *inbox.Inbox,
	statusCh chan channel.Status,
) Model {
	k := keys.DefaultKeyMap()
	return Model{
		cfg:      cfg,
		creds:    creds,
		ch:       ch,
		ib:       ib,
		view:     notiflist.New(ib, k, 80, 24),
		keys:     k,
		statusCh: statusCh,
	}
}

// Init starts the snapshot load and subscribes to inbox and channel
// events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.view.Init(),
		m.ib.WaitForEvent(),
		m.waitForStatus(),
	)
}

// Update routes messages to the view and keeps the event subscriptions
// alive.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.view.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case connStatusMsg:
		m.conn = msg.status
		return m, m.waitForStatus()

	case inbox.SnapshotEvent, inbox.PushEvent:
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, tea.Batch(cmd, m.ib.WaitForEvent())

	case inbox.ToastEvent:
		m.toast = msg.Title
		if msg.Body != "" {
			m.toast += ": " + msg.Body
		}
		m.toastErr = false
		return m, m.ib.WaitForEvent()

	case inbox.MutationEvent:
		if msg.Err != nil {
			m.toast = fmt.Sprintf("Failed to %s", msg.Op)
			m.toastErr = true
		} else {
			m.toast = fmt.Sprintf("Done: %s", msg.Op)
			m.toastErr = false
		}
		return m, m.ib.WaitForEvent()

	case inbox.OpenedEvent:
		if msg.Err != nil {
			m.toast = "Failed to resolve notification link"
			m.toastErr = true
		} else if msg.Target != "" {
			m.toast = "Open: " + m.cfg.Server.BaseURL + msg.Target
			m.toastErr = false
		}
		return m, m.ib.WaitForEvent()

	case inbox.AuthExpiredEvent:
		// Stale identity: stop delivery and force re-authentication.
		m.ch.Disconnect()
		if err := m.creds.Clear(); err != nil {
			logging.L().Warn("app: clearing expired credential failed", "err", err)
		}
		m.fatal = "Session expired. Run 'forum-inbox login' to sign in again."
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// View renders the list, the toast line, and the status bar.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	toast := " "
	if m.toast != "" {
		if m.toastErr {
			toast = theme.ErrorStyle.Render(m.toast)
		} else {
			toast = theme.ToastStyle.Render(m.toast)
		}
	}

	conn := theme.ConnStyle(m.conn.State.String()).Render("● " + m.conn.State.String())
	help := theme.HelpStyle.Render("enter open · r read · R read all · x delete · X clear · g refresh · q quit")
	status := theme.StatusBarStyle.Render(conn + "  " + help)

	return lipgloss.JoinVertical(lipgloss.Left, m.view.View(), toast, status)
}

// FatalMessage returns the message to print after the program exits,
// if the session ended abnormally.
func (m Model) FatalMessage() string {
	return m.fatal
}

// Run wires all components and runs the TUI until exit.
func Run(cfg *model.AppConfig) error {
	creds := credential.NewStore()
	if !creds.HasToken() {
		return fmt.Errorf("no session: run 'forum-inbox login' first")
	}
	logging.With("base_url", cfg.Server.BaseURL, "broker_url", cfg.Server.BrokerURL).
		Info("app: starting")

	client := api.NewClient(cfg.Server.BaseURL, creds)

	var journal store.Journal
	if j, err := store.NewSQLiteJournal(model.DefaultDataPath()); err != nil {
		logging.L().Warn("app: journal unavailable, de-duplication is in-memory only", "err", err)
	} else {
		journal = j
		defer j.Close()
	}

	ib := inbox.New(client, journal, cfg.Server.PageSize)
	ib.Restore(context.Background())

	ch := channel.New(channel.Config{
		BrokerURL:      cfg.Server.BrokerURL,
		Topic:          cfg.Channel.Topic,
		ReconnectDelay: time.Duration(cfg.Channel.ReconnectDelaySec) * time.Second,
		Heartbeat:      time.Duration(cfg.Channel.HeartbeatSec) * time.Second,
	}, creds)

	unsubscribe := ch.Subscribe(func(n model.Notification) {
		ib.Push(n)
	})
	defer unsubscribe()

	statusCh := make(chan channel.Status, 8)
	unwatch := ch.SubscribeState(func(s channel.Status) {
		select {
		case statusCh <- s:
		default:
		}
	})
	defer unwatch()

	ch.Connect()
	defer ch.Disconnect()

	p := tea.NewProgram(New(cfg, creds, ch, ib, statusCh), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("running ui: %w", err)
	}

	if m, ok := final.(Model); ok && m.FatalMessage() != "" {
		fmt.Println(m.FatalMessage())
	}
	return nil
}

// waitForStatus returns a command that delivers the next connection
// state change.
func (m Model) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-m.statusCh
		if !ok {
			return nil
		}
		return connStatusMsg{status: s}
	}
}
