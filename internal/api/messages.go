package api

import (
	"context"
	"fmt"
)

// CarpoolMessages fetches the full message history for one carpool. The
// server makes no ordering promise; callers sort by timestamp.
func (c *Client) CarpoolMessages(ctx context.Context, carpoolID int64) ([]ChatMessage, error) {
	var messages []ChatMessage
	if err := c.get(ctx, fmt.Sprintf("/api/carpool/%d/messages", carpoolID), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
