package inbox

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/forum-inbox/internal/model"
)

// Event is a message posted by the inbox's background work and drained
// into the Bubble Tea runtime. Every Event is also a tea.Msg.
type Event interface{}

// SnapshotEvent carries a freshly installed REST snapshot.
type SnapshotEvent struct {
	List  []model.Notification
	Count int
}

// PushEvent carries one merged live delivery and the resulting totals.
type PushEvent struct {
	Notification model.Notification
	Count        int
	ListLen      int
}

// ToastEvent is a transient alert shown once per new delivery or
// completed/failed user action.
type ToastEvent struct {
	Title string
	Body  string
}

// MutationEvent reports the outcome of a mutate-and-resync operation.
// Err is nil on success.
type MutationEvent struct {
	Op  string
	Err error
}

// AuthExpiredEvent signals that the backend rejected the credential;
// the app must force re-authentication.
type AuthExpiredEvent struct{}

// OpenedEvent carries the result of resolving a notification's deep
// link. Target is empty when the notification has no link or the
// resolution failed.
type OpenedEvent struct {
	Target string
	Err    error
}

// WaitForEvent returns a command that delivers the next inbox event to
// the UI. After handling an event the UI must call WaitForEvent again
// to keep listening.
func (i *Inbox) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-i.events
		if !ok {
			return nil
		}
		return e
	}
}

// LoadCmd runs Load in the background.
func (i *Inbox) LoadCmd() tea.Cmd {
	return func() tea.Msg {
		i.Load(context.Background())
		return nil
	}
}

// MarkReadCmd runs MarkRead in the background; the outcome arrives as
// a MutationEvent.
func (i *Inbox) MarkReadCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		_ = i.MarkRead(context.Background(), id)
		return nil
	}
}

// MarkAllReadCmd runs MarkAllRead in the background.
func (i *Inbox) MarkAllReadCmd() tea.Cmd {
	return func() tea.Msg {
		_ = i.MarkAllRead(context.Background())
		return nil
	}
}

// DeleteCmd runs Delete in the background.
func (i *Inbox) DeleteCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		_ = i.Delete(context.Background(), id)
		return nil
	}
}

// DeleteAllCmd runs DeleteAll in the background.
func (i *Inbox) DeleteAllCmd() tea.Cmd {
	return func() tea.Msg {
		_ = i.DeleteAll(context.Background())
		return nil
	}
}

// OpenCmd resolves and opens a notification in the background; the
// outcome arrives as an OpenedEvent.
func (i *Inbox) OpenCmd(n model.Notification) tea.Cmd {
	return func() tea.Msg {
		target, err := i.Open(context.Background(), n)
		i.send(OpenedEvent{Target: target, Err: err})
		return nil
	}
}
