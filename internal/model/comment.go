package model

import "time"

// Comment is a threaded reply on a forum post. The client only needs it
// for deep-link resolution: a notification linking to a comment is
// resolved to its parent post before navigation.
type Comment struct {
	// ID is the comment's unique identifier.
	ID int64 `json:"id"`

	// PostID is the identifier of the post this comment belongs to.
	PostID int64 `json:"postId"`

	// Content is the comment body.
	Content string `json:"content"`

	// Author is the display name of the comment's author.
	Author string `json:"author"`

	// CreatedAt is when the comment was posted.
	CreatedAt time.Time `json:"createdAt"`
}
