package model

import (
	"strconv"
	"strings"
	"time"
)

// Notification represents a single user-facing event delivered by the
// forum's notification service, either in a REST snapshot batch or as a
// live push over the notification channel.
type Notification struct {
	// ID is the server-assigned identifier, unique within a user's
	// notification stream. It is the de-duplication key when merging
	// the REST snapshot with live pushes.
	ID int64 `json:"id"`

	// Title is the short headline (e.g. "New reply to your post").
	Title string `json:"title"`

	// Content is the human-readable notification body.
	Content string `json:"content"`

	// Link is an optional deep link to the resource the notification
	// refers to (a post or a comment).
	Link string `json:"link,omitempty"`

	// CreatedAt is when the notification was generated server-side.
	CreatedAt time.Time `json:"createdAt"`

	// Read indicates whether the user has acknowledged the
	// notification. Unread snapshots always carry false here.
	Read bool `json:"read"`
}

// CommentLinkID extracts the comment identifier from the notification's
// deep link, or 0 if the link does not reference a comment resource.
// Comment links require resolving the parent post before navigation.
func (n Notification) CommentLinkID() int64 {
	idx := strings.LastIndex(n.Link, "/comments/")
	if idx < 0 {
		return 0
	}
	raw := n.Link[idx+len("/comments/"):]
	if slash := strings.IndexByte(raw, '/'); slash >= 0 {
		raw = raw[:slash]
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
