package realtime

import "encoding/json"

// Event names carried on the realtime connection. The emit set scopes
// server-side room membership; the consume set is pushed by the server.
const (
	// Emitted by the client.
	EventJoinUser     = "join_user"
	EventJoinCarpool  = "join_carpool"
	EventLeaveCarpool = "leave_carpool"
	EventSendMessage  = "send_message"

	// Pushed by the server.
	EventNotification = "notification"
	EventNewMessage   = "new_message"
)

// Event is one tagged frame on the realtime connection.
type Event struct {
	Type string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinUser is the payload scoping notification delivery to one user.
type JoinUser struct {
	UserID int64 `json:"user_id"`
}

// RoomChange is the payload for joining or leaving a carpool room.
type RoomChange struct {
	CarpoolID int64 `json:"carpool_id"`
	UserID    int64 `json:"user_id"`
}
