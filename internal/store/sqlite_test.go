package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/forum-inbox/internal/model"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "inbox.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func notif(id int64, title string) model.Notification {
	return model.Notification{
		ID:        id,
		Title:     title,
		Content:   "body",
		Link:      "/posts/1",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDeliveredRoundTrip(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	seen, err := j.Delivered(ctx, 1)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, j.RecordDelivered(ctx, notif(1, "A")))

	seen, err = j.Delivered(ctx, 1)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestRecordDeliveredIsIdempotent(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordDelivered(ctx, notif(1, "A")))
	require.NoError(t, j.RecordDelivered(ctx, notif(1, "A")))

	seen, err := j.Delivered(ctx, 1)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSnapshotRoundTrip(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	list := []model.Notification{notif(3, "C"), notif(1, "A"), notif(2, "B")}
	require.NoError(t, j.SaveSnapshot(ctx, list, 5))

	got, count, err := j.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	require.Len(t, got, 3)

	// Saved order is preserved, not re-sorted.
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)
	assert.Equal(t, int64(2), got[2].ID)
	assert.Equal(t, "C", got[0].Title)
	assert.Equal(t, "/posts/1", got[0].Link)
	assert.True(t, got[0].CreatedAt.Equal(list[0].CreatedAt))
}

func TestSaveSnapshotReplacesPrevious(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.SaveSnapshot(ctx, []model.Notification{notif(1, "A"), notif(2, "B")}, 2))
	require.NoError(t, j.SaveSnapshot(ctx, []model.Notification{notif(9, "Z")}, 1))

	got, count, err := j.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, got, 1)
	assert.Equal(t, int64(9), got[0].ID)
}

func TestSnapshotEmpty(t *testing.T) {
	j := newTestJournal(t)

	got, count, err := j.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, count)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inbox.db")

	j1, err := NewSQLiteJournal(path)
	require.NoError(t, err)
	require.NoError(t, j1.RecordDelivered(context.Background(), notif(1, "A")))
	require.NoError(t, j1.Close())

	// Reopening must not re-run applied migrations or lose data.
	j2, err := NewSQLiteJournal(path)
	require.NoError(t, err)
	defer j2.Close()

	seen, err := j2.Delivered(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, seen)
}
