// Package inbox reconciles the authoritative REST snapshot of unread
// notifications with the live delta stream pushed over the channel,
// and applies user-initiated mutations with server confirmation.
package inbox

import (
	"context"
	"fmt"
	"sync"

	"github.com/nhle/forum-inbox/internal/api"
	"github.com/nhle/forum-inbox/internal/logging"
	"github.com/nhle/forum-inbox/internal/model"
	"github.com/nhle/forum-inbox/internal/store"
)

// Fetcher is the slice of the forum API the inbox depends on.
// *api.Client satisfies it.
type Fetcher interface {
	Unread(ctx context.Context, page, size int) ([]model.Notification, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) error
	Comment(ctx context.Context, id int64) (*model.Comment, error)
}

// defaultPageSize is the unread page size when the config gives none.
const defaultPageSize = 20

// Inbox holds the reconciled view of unread notifications. All methods
// are safe for concurrent use; the channel's read loop and the UI both
// touch it.
type Inbox struct {
	client   Fetcher
	journal  store.Journal
	pageSize int

	mu    sync.Mutex
	list  []model.Notification
	count int

	events chan Event
}

// New creates an Inbox. The journal may be nil, in which case delivery
// de-duplication only spans the current process.
func New(client Fetcher, journal store.Journal, pageSize int) *Inbox {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Inbox{
		client:   client,
		journal:  journal,
		pageSize: pageSize,
		events:   make(chan Event, 16),
	}
}

// Snapshot returns a copy of the current unread list and count.
func (i *Inbox) Snapshot() ([]model.Notification, int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	list := make([]model.Notification, len(i.list))
	copy(list, i.list)
	return list, i.count
}

// Load fetches the unread list (page 0) and the unread count
// concurrently and installs the result. Either call failing is
// non-fatal: the inbox becomes ready with empty defaults and the error
// is logged, so the view renders an empty state instead of blocking.
func (i *Inbox) Load(ctx context.Context) {
	var (
		wg      sync.WaitGroup
		list    []model.Notification
		count   int
		listErr error
		cntErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		list, listErr = i.client.Unread(ctx, 0, i.pageSize)
	}()
	go func() {
		defer wg.Done()
		count, cntErr = i.client.UnreadCount(ctx)
	}()
	wg.Wait()

	if listErr != nil || cntErr != nil {
		err := listErr
		if err == nil {
			err = cntErr
		}
		logging.L().Error("inbox: snapshot fetch failed", "err", err)
		if api.IsCredentialExpired(err) {
			i.send(AuthExpiredEvent{})
		}
		list, count = nil, 0
	}

	i.install(ctx, list, count)
	i.send(SnapshotEvent{List: list, Count: count})
}

// Restore seeds the inbox from the journal's mirrored snapshot, for
// instant display before the first fetch completes. No-op without a
// journal.
func (i *Inbox) Restore(ctx context.Context) {
	if i.journal == nil {
		return
	}
	list, count, err := i.journal.Snapshot(ctx)
	if err != nil || len(list) == 0 {
		return
	}

	i.mu.Lock()
	if len(i.list) == 0 {
		i.list = list
		i.count = count
	}
	i.mu.Unlock()
}

// Push merges one live delivery into the view: prepend and increment,
// with exactly one toast per genuinely new notification. Deliveries
// whose id is already present (snapshot/live race, reconnect replay)
// change nothing and fire no toast. Returns whether the event was
// merged.
func (i *Inbox) Push(n model.Notification) bool {
	i.mu.Lock()
	for _, existing := range i.list {
		if existing.ID == n.ID {
			i.mu.Unlock()
			logging.L().Debug("inbox: dropping duplicate delivery", "id", n.ID)
			return false
		}
	}
	i.list = append([]model.Notification{n}, i.list...)
	i.count++
	list, count := i.list, i.count
	i.mu.Unlock()

	toast := true
	if i.journal != nil {
		ctx := context.Background()
		if seen, err := i.journal.Delivered(ctx, n.ID); err == nil && seen {
			toast = false
		}
		if err := i.journal.RecordDelivered(ctx, n); err != nil {
			logging.L().Warn("inbox: journal write failed", "err", err)
		}
	}

	i.send(PushEvent{Notification: n, Count: count, ListLen: len(list)})
	if toast {
		i.send(ToastEvent{Title: n.Title, Body: n.Content})
	}
	return true
}

// MarkRead marks one notification as read: the REST mutation first,
// and only on success a full snapshot re-fetch. On failure local state
// is untouched and the error is returned for surfacing.
func (i *Inbox) MarkRead(ctx context.Context, id int64) error {
	return i.mutate(ctx, "mark read", func() error {
		return i.client.MarkRead(ctx, id)
	})
}

// MarkAllRead marks every unread notification as read.
func (i *Inbox) MarkAllRead(ctx context.Context) error {
	return i.mutate(ctx, "mark all read", func() error {
		return i.client.MarkAllRead(ctx)
	})
}

// Delete removes one notification.
func (i *Inbox) Delete(ctx context.Context, id int64) error {
	return i.mutate(ctx, "delete", func() error {
		return i.client.Delete(ctx, id)
	})
}

// DeleteAll removes every notification.
func (i *Inbox) DeleteAll(ctx context.Context) error {
	return i.mutate(ctx, "delete all", func() error {
		return i.client.DeleteAll(ctx)
	})
}

// mutate is the atomic mutate-and-resync sequence shared by all
// notification mutations.
func (i *Inbox) mutate(ctx context.Context, op string, fn func() error) error {
	if err := fn(); err != nil {
		logging.L().Warn("inbox: mutation failed", "op", op, "err", err)
		if api.IsCredentialExpired(err) {
			i.send(AuthExpiredEvent{})
		}
		i.send(MutationEvent{Op: op, Err: err})
		return fmt.Errorf("%s: %w", op, err)
	}

	i.resync(ctx)
	i.send(MutationEvent{Op: op})
	return nil
}

// resync re-fetches the full snapshot after a confirmed mutation. A
// failing re-fetch leaves the previous state in place; the next load
// or mutation will converge.
func (i *Inbox) resync(ctx context.Context) {
	var (
		wg      sync.WaitGroup
		list    []model.Notification
		count   int
		listErr error
		cntErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		list, listErr = i.client.Unread(ctx, 0, i.pageSize)
	}()
	go func() {
		defer wg.Done()
		count, cntErr = i.client.UnreadCount(ctx)
	}()
	wg.Wait()

	if listErr != nil || cntErr != nil {
		err := listErr
		if err == nil {
			err = cntErr
		}
		logging.L().Warn("inbox: resync failed, keeping previous state", "err", err)
		return
	}

	i.install(ctx, list, count)
	i.send(SnapshotEvent{List: list, Count: count})
}

// Open resolves a notification's deep link to a navigation target.
// Links referencing a comment require one lookup to find the parent
// post; if that lookup fails no navigation target is returned and the
// notification stays unread. On success the notification is marked
// read (best-effort) and the target returned.
func (i *Inbox) Open(ctx context.Context, n model.Notification) (string, error) {
	if n.Link == "" {
		return "", nil
	}

	target := n.Link
	if commentID := n.CommentLinkID(); commentID != 0 {
		comment, err := i.client.Comment(ctx, commentID)
		if err != nil {
			logging.L().Warn("inbox: comment lookup failed", "id", commentID, "err", err)
			if api.IsCredentialExpired(err) {
				i.send(AuthExpiredEvent{})
			}
			return "", fmt.Errorf("resolving comment %d: %w", commentID, err)
		}
		target = fmt.Sprintf("/posts/%d?highlightedCommentId=%d", comment.PostID, commentID)
	}

	if err := i.MarkRead(ctx, n.ID); err != nil {
		// Navigation already resolved; read state converges later.
		logging.L().Warn("inbox: mark-read after open failed", "id", n.ID, "err", err)
	}

	return target, nil
}

// install replaces local state with a fresh snapshot and mirrors it to
// the journal.
func (i *Inbox) install(ctx context.Context, list []model.Notification, count int) {
	i.mu.Lock()
	i.list = list
	i.count = count
	i.mu.Unlock()

	if i.journal == nil {
		return
	}
	for _, n := range list {
		if err := i.journal.RecordDelivered(ctx, n); err != nil {
			logging.L().Warn("inbox: journal write failed", "err", err)
			break
		}
	}
	if err := i.journal.SaveSnapshot(ctx, list, count); err != nil {
		logging.L().Warn("inbox: snapshot mirror failed", "err", err)
	}
}

// send posts an event without blocking; if the UI is not draining fast
// enough the event is dropped rather than stalling the caller.
func (i *Inbox) send(e Event) {
	select {
	case i.events <- e:
	default:
	}
}
