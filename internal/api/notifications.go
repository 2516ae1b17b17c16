package api

import (
	"context"
	"fmt"

	"github.com/nhle/forum-inbox/internal/model"
)

// Unread fetches one page of the user's unread notifications, newest
// first. Pages are zero-indexed.
func (c *Client) Unread(
	ctx context.Context,
	page, size int,
) ([]model.Notification, error) {
	var notifications []model.Notification
	path := fmt.Sprintf("/notifications/unread?page=%d&size=%d", page, size)
	if err := c.get(ctx, path, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount fetches the total number of unread notifications.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var count int
	if err := c.get(ctx, "/notifications/unread/count", &count); err != nil {
		return 0, err
	}
	return count, nil
}

// All fetches one page of the user's full notification history,
// read and unread alike.
func (c *Client) All(
	ctx context.Context,
	page, size int,
) ([]model.Notification, error) {
	var notifications []model.Notification
	path := fmt.Sprintf("/notifications?page=%d&size=%d", page, size)
	if err := c.get(ctx, path, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead marks a single notification as read.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	return c.put(ctx, fmt.Sprintf("/notifications/%d/read", id))
}

// MarkAllRead marks every unread notification as read.
func (c *Client) MarkAllRead(ctx context.Context) error {
	return c.put(ctx, "/notifications/read-all")
}

// Delete removes a single notification.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/notifications/%d", id))
}

// DeleteAll removes every notification.
func (c *Client) DeleteAll(ctx context.Context) error {
	return c.delete(ctx, "/notifications")
}
