package store

import (
	"context"

	"github.com/nhle/forum-inbox/internal/model"
)

// Journal persists notification delivery state across restarts: which
// ids have already been delivered to this client (so a reconnect or
// restart never repeats a toast) and a mirror of the last unread
// snapshot for instant display before the first fetch completes.
type Journal interface {
	// RecordDelivered marks a notification as having been delivered
	// to this client. Recording the same id twice is not an error.
	RecordDelivered(ctx context.Context, n model.Notification) error

	// Delivered reports whether the id has been delivered before.
	Delivered(ctx context.Context, id int64) (bool, error)

	// SaveSnapshot replaces the mirrored unread snapshot.
	SaveSnapshot(ctx context.Context, list []model.Notification, count int) error

	// Snapshot returns the mirrored unread snapshot in saved order.
	Snapshot(ctx context.Context) ([]model.Notification, int, error)

	// Close releases the underlying storage.
	Close() error
}
