package api

import "context"

// NotificationsResponse is the response from the notifications endpoint.
type NotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
}

// Notifications fetches the user's notification history together with the
// server-computed unread count.
func (c *Client) Notifications(ctx context.Context) (*NotificationsResponse, error) {
	var resp NotificationsResponse
	if err := c.get(ctx, "/api/notifications", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// markReadRequest is the request body for the batch mark-read endpoint.
type markReadRequest struct {
	NotificationIDs []int64 `json:"notification_ids"`
}

// MarkNotificationsRead marks the given notification ids as read. The
// endpoint is idempotent; already-read ids are ignored server-side.
func (c *Client) MarkNotificationsRead(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return c.post(ctx, "/api/notifications/mark-read", markReadRequest{NotificationIDs: ids}, nil)
}

// markCarpoolReadRequest is the request body for carpool-scoped mark-read.
type markCarpoolReadRequest struct {
	CarpoolID int64  `json:"carpool_id"`
	Type      string `json:"type"`
}

// MarkCarpoolNotificationsRead marks all notifications of the given type for
// one carpool as read. Used when a chat transcript is opened.
func (c *Client) MarkCarpoolNotificationsRead(ctx context.Context, carpoolID int64, notificationType string) error {
	return c.post(ctx, "/api/notifications/mark-carpool-read",
		markCarpoolReadRequest{CarpoolID: carpoolID, Type: notificationType}, nil)
}
