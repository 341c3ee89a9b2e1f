package api

import (
	"fmt"
	"strings"
	"time"
)

// timeLayouts are the timestamp formats the backend is known to emit:
// RFC3339, naive ISO 8601 (UTC implied), SQL datetime, and RFC 1123 for
// serialized model columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	time.RFC1123,
	time.RFC1123Z,
}

// Time is a time.Time that tolerates the backend's mixed timestamp formats.
type Time struct {
	time.Time
}

// UnmarshalJSON parses a timestamp in any of the backend's formats.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON encodes the timestamp as RFC3339.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + t.Format(time.RFC3339Nano) + `"`), nil
}

// User is the authenticated account returned by the current-user endpoint.
type User struct {
	ID                      int64           `json:"id"`
	Email                   string          `json:"email"`
	FirstName               string          `json:"first_name"`
	LastName                string          `json:"last_name"`
	Roles                   []string        `json:"roles"`
	Address                 string          `json:"address,omitempty"`
	Postcode                string          `json:"postcode,omitempty"`
	City                    string          `json:"city,omitempty"`
	Phone                   string          `json:"phone,omitempty"`
	IsAccepted              bool            `json:"is_accepted"`
	NotificationPreferences map[string]bool `json:"notification_preferences,omitempty"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// CarpoolDetails is the carpool summary attached to pushed notifications.
type CarpoolDetails struct {
	CarpoolID        int64  `json:"carpool_id"`
	CarpoolType      string `json:"carpool_type,omitempty"`
	AvailableSeats   int    `json:"available_seats,omitempty"`
	DepartureAddress string `json:"departure_address,omitempty"`
	DepartureCity    string `json:"departure_city,omitempty"`
}

// Notification is a single user notification, delivered either by the
// historical fetch or as a realtime push.
type Notification struct {
	ID             int64           `json:"id"`
	Message        string          `json:"message"`
	CarpoolID      int64           `json:"carpool_id,omitempty"`
	IsRead         bool            `json:"is_read"`
	CreatedAt      Time            `json:"created_at,omitempty"`
	Type           string          `json:"type,omitempty"`
	CarpoolDetails *CarpoolDetails `json:"carpool_details,omitempty"`
}

// ChatMessage is one message in a carpool chat transcript. Messages are
// immutable once created; the ordering key is Timestamp.
type ChatMessage struct {
	ID         int64  `json:"id"`
	CarpoolID  int64  `json:"carpool_id,omitempty"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name,omitempty"`
	Content    string `json:"content"`
	Timestamp  Time   `json:"timestamp"`
}

// Parent identifies a passenger child's parent on the passenger list.
type Parent struct {
	ParentID    int64  `json:"parent_id"`
	ParentName  string `json:"parent_name"`
	ParentPhone string `json:"parent_phone,omitempty"`
}

// Passenger is one seat occupant in a carpool, either a child or a user.
type Passenger struct {
	Type    string   `json:"type"`
	ChildID int64    `json:"child_id,omitempty"`
	UserID  int64    `json:"user_id,omitempty"`
	Name    string   `json:"name"`
	Phone   string   `json:"phone,omitempty"`
	Parents []Parent `json:"parents,omitempty"`
}

// Carpool is a driver-offered ride tied to one activity.
type Carpool struct {
	ID                int64       `json:"id"`
	DriverID          int64       `json:"driver_id"`
	CarID             int64       `json:"car_id"`
	CarModelName      string      `json:"car_model_name,omitempty"`
	AvailableSeats    int         `json:"available_seats"`
	DepartureAddress  string      `json:"departure_address"`
	DeparturePostcode string      `json:"departure_postcode,omitempty"`
	DepartureCity     string      `json:"departure_city"`
	CarpoolType       string      `json:"carpool_type"`
	Passengers        []Passenger `json:"passengers,omitempty"`
}

// Activity is a scheduled scout event.
type Activity struct {
	ActivityID  int64  `json:"activity_id"`
	Summary     string `json:"summary"`
	DtStart     Time   `json:"dtstart"`
	DtEnd       Time   `json:"dtend"`
	Location    string `json:"location"`
	Description string `json:"description,omitempty"`
	ScoutLevel  string `json:"scout_level,omitempty"`
}

// Car is a registered vehicle belonging to a user.
type Car struct {
	CarID     int64  `json:"car_id"`
	RegNumber string `json:"reg_number"`
	FuelType  string `json:"fuel_type"`
	ModelName string `json:"model_name"`
}
