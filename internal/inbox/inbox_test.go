package inbox

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/forum-inbox/internal/api"
	"github.com/nhle/forum-inbox/internal/model"
	"github.com/nhle/forum-inbox/internal/store"
)

// fakeClient is an in-memory Fetcher with scriptable failures.
type fakeClient struct {
	mu sync.Mutex

	unread []model.Notification
	count  int

	unreadErr  error
	countErr   error
	mutErr     error
	commentErr error

	comments map[int64]*model.Comment
	calls    map[string]int
}

func newFakeClient(unread []model.Notification, count int) *fakeClient {
	return &fakeClient{
		unread:   unread,
		count:    count,
		comments: make(map[int64]*model.Comment),
		calls:    make(map[string]int),
	}
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeClient) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// setSnapshot changes what the server reports on the next fetch.
func (f *fakeClient) setSnapshot(unread []model.Notification, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unread = unread
	f.count = count
}

func (f *fakeClient) Unread(ctx context.Context, page, size int) ([]model.Notification, error) {
	f.record("unread")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreadErr != nil {
		return nil, f.unreadErr
	}
	out := make([]model.Notification, len(f.unread))
	copy(out, f.unread)
	return out, nil
}

func (f *fakeClient) UnreadCount(ctx context.Context) (int, error) {
	f.record("count")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *fakeClient) MarkRead(ctx context.Context, id int64) error {
	f.record("markRead")
	return f.mutErr
}

func (f *fakeClient) MarkAllRead(ctx context.Context) error {
	f.record("markAllRead")
	return f.mutErr
}

func (f *fakeClient) Delete(ctx context.Context, id int64) error {
	f.record("delete")
	return f.mutErr
}

func (f *fakeClient) DeleteAll(ctx context.Context) error {
	f.record("deleteAll")
	return f.mutErr
}

func (f *fakeClient) Comment(ctx context.Context, id int64) (*model.Comment, error) {
	f.record("comment")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentErr != nil {
		return nil, f.commentErr
	}
	return f.comments[id], nil
}

func notif(id int64, title string) model.Notification {
	return model.Notification{
		ID:        id,
		Title:     title,
		Content:   title + " content",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ids projects a list onto its identifiers for compact assertions.
func ids(list []model.Notification) []int64 {
	out := make([]int64, len(list))
	for i, n := range list {
		out[i] = n.ID
	}
	return out
}

// drainEvents empties the inbox's event queue and returns it.
func drainEvents(i *Inbox) []Event {
	var events []Event
	for {
		select {
		case e := <-i.events:
			events = append(events, e)
		default:
			return events
		}
	}
}

func countToasts(events []Event) int {
	n := 0
	for _, e := range events {
		if _, ok := e.(ToastEvent); ok {
			n++
		}
	}
	return n
}

func TestLoadInstallsSnapshot(t *testing.T) {
	client := newFakeClient([]model.Notification{notif(1, "A"), notif(2, "B"), notif(3, "C")}, 3)
	ib := New(client, nil, 20)

	ib.Load(context.Background())

	list, count := ib.Snapshot()
	assert.Equal(t, []int64{1, 2, 3}, ids(list))
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, client.callCount("unread"))
	assert.Equal(t, 1, client.callCount("count"))
}

func TestLoadFailureYieldsEmptyDefaults(t *testing.T) {
	client := newFakeClient([]model.Notification{notif(1, "A")}, 1)
	client.unreadErr = &api.APIError{Status: 500, Body: "boom"}
	ib := New(client, nil, 20)

	ib.Load(context.Background())

	list, count := ib.Snapshot()
	assert.Empty(t, list)
	assert.Equal(t, 0, count)
}

func TestPushPrependsAndIncrements(t *testing.T) {
	client := newFakeClient([]model.Notification{notif(1, "A"), notif(2, "B"), notif(3, "C")}, 3)
	ib := New(client, nil, 20)
	ib.Load(context.Background())
	drainEvents(ib)

	merged := ib.Push(notif(4, "D"))
	require.True(t, merged)

	list, count := ib.Snapshot()
	assert.Equal(t, []int64{4, 1, 2, 3}, ids(list))
	assert.Equal(t, 4, count)

	assert.Equal(t, 1, countToasts(drainEvents(ib)))
}

func TestPushDuplicateIsDropped(t *testing.T) {
	client := newFakeClient([]model.Notification{notif(1, "A"), notif(2, "B")}, 2)
	ib := New(client, nil, 20)
	ib.Load(context.Background())
	drainEvents(ib)

	// Live delivery of a notification already present from the
	// snapshot: the snapshot/live race must not double it.
	merged := ib.Push(notif(2, "B"))
	assert.False(t, merged)

	list, count := ib.Snapshot()
	assert.Equal(t, []int64{1, 2}, ids(list))
	assert.Equal(t, 2, count)
	assert.Zero(t, countToasts(drainEvents(ib)))
}

func TestMarkReadResyncsFromServer(t *testing.T) {
	client := newFakeClient([]model.Notification{
		notif(4, "D"), notif(1, "A"), notif(2, "B"), notif(3, "C"),
	}, 4)
	ib := New(client, nil, 20)
	ib.Load(context.Background())

	// Server confirms the mutation and now reports B gone.
	client.setSnapshot([]model.Notification{notif(4, "D"), notif(1, "A"), notif(3, "C")}, 3)

	require.NoError(t, ib.MarkRead(context.Background(), 2))

	list, count := ib.Snapshot()
	assert.Equal(t, []int64{4, 1, 3}, ids(list))
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, client.callCount("markRead"))
	assert.Equal(t, 2, client.callCount("unread"), "load + resync")
}

func TestMarkReadFailureLeavesStateUntouched(t *testing.T) {
	client := newFakeClient([]model.Notification{
		notif(4, "D"), notif(1, "A"), notif(2, "B"), notif(3, "C"),
	}, 4)
	ib := New(client, nil, 20)
	ib.Load(context.Background())
	drainEvents(ib)

	client.mutErr = &api.APIError{Status: 503, Body: "unavailable"}

	err := ib.MarkRead(context.Background(), 2)
	require.Error(t, err)

	list, count := ib.Snapshot()
	assert.Equal(t, []int64{4, 1, 2, 3}, ids(list))
	assert.Equal(t, 4, count)
	assert.Equal(t, 1, client.callCount("unread"), "no resync after failure")

	var failed bool
	for _, e := range drainEvents(ib) {
		if m, ok := e.(MutationEvent); ok && m.Err != nil {
			failed = true
		}
	}
	assert.True(t, failed, "failure must be surfaced")
}

func TestBulkMutations(t *testing.T) {
	client := newFakeClient([]model.Notification{notif(1, "A")}, 1)
	ib := New(client, nil, 20)
	ib.Load(context.Background())

	client.setSnapshot(nil, 0)

	require.NoError(t, ib.MarkAllRead(context.Background()))
	list, count := ib.Snapshot()
	assert.Empty(t, list)
	assert.Equal(t, 0, count)

	require.NoError(t, ib.DeleteAll(context.Background()))
	assert.Equal(t, 1, client.callCount("markAllRead"))
	assert.Equal(t, 1, client.callCount("deleteAll"))
}

func TestOpenResolvesCommentToParentPost(t *testing.T) {
	n := notif(5, "reply")
	n.Link = "/comments/77"

	client := newFakeClient([]model.Notification{n}, 1)
	client.comments[77] = &model.Comment{ID: 77, PostID: 12}
	ib := New(client, nil, 20)
	ib.Load(context.Background())

	target, err := ib.Open(context.Background(), n)
	require.NoError(t, err)

	assert.Equal(t, "/posts/12?highlightedCommentId=77", target)
	assert.Equal(t, 1, client.callCount("comment"), "exactly one lookup")
	assert.Equal(t, 1, client.callCount("markRead"), "opened notification is marked read")
}

func TestOpenLookupFailureAbortsNavigation(t *testing.T) {
	n := notif(5, "reply")
	n.Link = "/comments/77"

	client := newFakeClient([]model.Notification{n}, 1)
	client.commentErr = &api.APIError{Status: 500, Body: "boom"}
	ib := New(client, nil, 20)
	ib.Load(context.Background())

	target, err := ib.Open(context.Background(), n)
	require.Error(t, err)
	assert.Empty(t, target)
	assert.Zero(t, client.callCount("markRead"), "notification stays unread")

	list, _ := ib.Snapshot()
	assert.Equal(t, []int64{5}, ids(list))
}

func TestOpenPlainLink(t *testing.T) {
	n := notif(6, "post update")
	n.Link = "/posts/9"

	client := newFakeClient([]model.Notification{n}, 1)
	ib := New(client, nil, 20)
	ib.Load(context.Background())

	target, err := ib.Open(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "/posts/9", target)
	assert.Zero(t, client.callCount("comment"))
}

func TestOpenWithoutLink(t *testing.T) {
	client := newFakeClient(nil, 0)
	ib := New(client, nil, 20)

	target, err := ib.Open(context.Background(), notif(7, "plain"))
	require.NoError(t, err)
	assert.Empty(t, target)
	assert.Zero(t, client.callCount("markRead"))
}

func TestJournalSuppressesRepeatToastAcrossRestarts(t *testing.T) {
	journal, err := store.NewSQLiteJournal(filepath.Join(t.TempDir(), "inbox.db"))
	require.NoError(t, err)
	defer journal.Close()

	first := New(newFakeClient(nil, 0), journal, 20)
	require.True(t, first.Push(notif(1, "A")))
	assert.Equal(t, 1, countToasts(drainEvents(first)))

	// A fresh inbox over the same journal, as after a restart: the
	// redelivered notification is merged but alerts only once ever.
	second := New(newFakeClient(nil, 0), journal, 20)
	require.True(t, second.Push(notif(1, "A")))
	assert.Zero(t, countToasts(drainEvents(second)))

	list, count := second.Snapshot()
	assert.Equal(t, []int64{1}, ids(list))
	assert.Equal(t, 1, count)
}

func TestRestoreSeedsFromJournal(t *testing.T) {
	journal, err := store.NewSQLiteJournal(filepath.Join(t.TempDir(), "inbox.db"))
	require.NoError(t, err)
	defer journal.Close()

	ctx := context.Background()
	require.NoError(t, journal.SaveSnapshot(ctx, []model.Notification{notif(2, "B"), notif(1, "A")}, 2))

	ib := New(newFakeClient(nil, 0), journal, 20)
	ib.Restore(ctx)

	list, count := ib.Snapshot()
	assert.Equal(t, []int64{2, 1}, ids(list))
	assert.Equal(t, 2, count)
}

func TestCredentialExpiryIsSignaled(t *testing.T) {
	client := newFakeClient(nil, 0)
	client.unreadErr = &api.CredentialError{Status: 401}
	ib := New(client, nil, 20)

	ib.Load(context.Background())

	var expired bool
	for _, e := range drainEvents(ib) {
		if _, ok := e.(AuthExpiredEvent); ok {
			expired = true
		}
	}
	assert.True(t, expired)
}
