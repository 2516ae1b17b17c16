package api

import (
	"context"
	"fmt"

	"github.com/nhle/forum-inbox/internal/model"
)

// Comment fetches a single comment by ID. The inbox uses it to resolve
// a comment deep link to its parent post before navigating.
func (c *Client) Comment(ctx context.Context, id int64) (*model.Comment, error) {
	var comment model.Comment
	if err := c.get(ctx, fmt.Sprintf("/comments/%d", id), &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}
