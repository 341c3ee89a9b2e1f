// Package testutil provides an in-process stand-in for the carpool backend:
// the REST surface the client consumes plus a websocket gateway speaking the
// realtime event protocol. Tests drive it directly to push notifications and
// chat messages.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/realtime"
)

// sessionToken is the cookie value the fake backend issues on login.
const sessionToken = "test-session-token"

// SentMessage records a send_message emission received by the backend.
type SentMessage struct {
	CarpoolID  int64  `json:"carpool_id"`
	Content    string `json:"content"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name"`
}

type wsConn struct {
	conn  *websocket.Conn
	mu    sync.Mutex // serializes writes
	rooms map[int64]bool
}

func (c *wsConn) write(ev realtime.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(ev)
}

// Backend is the fake carpool service.
type Backend struct {
	Server *httptest.Server

	mu sync.Mutex

	// Fixtures. Set before the client under test connects.
	User            api.User
	Password        string
	Notifications   []api.Notification
	UnreadCount     int
	Messages        map[int64][]api.ChatMessage
	Carpools        []api.Carpool
	Activities      []api.Activity
	Cars            []api.Car
	CarpoolChildren map[int64][]api.ChildOption

	// JoinNotification, when set, is pushed to a connection the moment its
	// join_user arrives, the way the broker delivers a pending notification
	// to a freshly joined scope.
	JoinNotification *api.Notification

	// Failure switches.
	FailNotifications bool
	FailMarkRead      bool
	FailMessages      bool

	// Recorded traffic.
	CurrentUserCalls int
	MarkReadCalls    [][]int64
	CarpoolReadCalls []int64
	JoinedUsers      []int64
	JoinedRooms      []int64
	LeftRooms        []int64
	SentMessages     []SentMessage
	AddedChildren    []api.AddChildRequest

	conns         map[*wsConn]struct{}
	nextMessageID int64
}

// NewBackend starts the fake service. Callers must Close it.
func NewBackend() *Backend {
	b := &Backend{
		Password:      "hunter2",
		Messages:      map[int64][]api.ChatMessage{},
		conns:         map[*wsConn]struct{}{},
		nextMessageID: 1000,
	}

	r := chi.NewRouter()

	r.Post("/api/login", b.handleLogin)
	r.Post("/api/logout", b.handleLogout)
	r.Get("/ws", b.handleWS)

	r.Group(func(r chi.Router) {
		r.Use(b.requireSession)
		r.Get("/api/protected/user", b.handleCurrentUser)
		r.Get("/api/notifications", b.handleNotifications)
		r.Post("/api/notifications/mark-read", b.handleMarkRead)
		r.Post("/api/notifications/mark-carpool-read", b.handleMarkCarpoolRead)
		r.Get("/api/carpool/{id}/messages", b.handleMessages)
		r.Get("/api/carpool/list", b.handleListCarpools)
		r.Get("/api/carpool/check-multiple-children", b.handleCheckChildren)
		r.Post("/api/protected/add-child", b.handleAddChild)
		r.Get("/api/protected/activity/all", b.handleActivities)
		r.Get("/api/protected/get-cars", b.handleCars)
	})

	b.Server = httptest.NewServer(r)
	return b
}

// URL returns the REST base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

// WSURL returns the realtime gateway URL.
func (b *Backend) WSURL() string {
	return "ws" + strings.TrimPrefix(b.Server.URL, "http") + "/ws"
}

// Close shuts the fake service down.
func (b *Backend) Close() {
	b.mu.Lock()
	for c := range b.conns {
		c.conn.Close()
	}
	b.mu.Unlock()
	b.Server.Close()
}

func (b *Backend) jsonError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (b *Backend) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (b *Backend) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("jwt_token")
		if err != nil || cookie.Value != sessionToken {
			b.jsonError(w, http.StatusUnauthorized, "Token is missing!")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		b.jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	b.mu.Lock()
	ok := req.Email == b.User.Email && req.Password == b.Password
	b.mu.Unlock()
	if !ok {
		b.jsonError(w, http.StatusUnauthorized, "Invalid email or password!")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: "jwt_token", Value: sessionToken, Path: "/", HttpOnly: true})
	b.writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful!"})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "jwt_token", Value: "", Path: "/", MaxAge: -1})
	b.writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (b *Backend) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.CurrentUserCalls++
	user := b.User
	b.mu.Unlock()
	b.writeJSON(w, http.StatusOK, map[string]api.User{"user": user})
}

func (b *Backend) handleNotifications(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailNotifications {
		b.jsonError(w, http.StatusInternalServerError, "notifications unavailable")
		return
	}
	b.writeJSON(w, http.StatusOK, api.NotificationsResponse{
		Notifications: b.Notifications,
		UnreadCount:   b.UnreadCount,
	})
}

func (b *Backend) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NotificationIDs []int64 `json:"notification_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		b.jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailMarkRead {
		b.jsonError(w, http.StatusInternalServerError, "mark-read unavailable")
		return
	}
	b.MarkReadCalls = append(b.MarkReadCalls, req.NotificationIDs)
	for i := range b.Notifications {
		for _, id := range req.NotificationIDs {
			if b.Notifications[i].ID == id {
				b.Notifications[i].IsRead = true
			}
		}
	}
	b.writeJSON(w, http.StatusOK, map[string]string{"message": "Notifications marked as read"})
}

func (b *Backend) handleMarkCarpoolRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CarpoolID int64  `json:"carpool_id"`
		Type      string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		b.jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	b.mu.Lock()
	b.CarpoolReadCalls = append(b.CarpoolReadCalls, req.CarpoolID)
	b.mu.Unlock()
	b.writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (b *Backend) handleMessages(w http.ResponseWriter, r *http.Request) {
	carpoolID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		b.jsonError(w, http.StatusBadRequest, "invalid carpool id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailMessages {
		b.jsonError(w, http.StatusInternalServerError, "messages unavailable")
		return
	}
	msgs := b.Messages[carpoolID]
	if msgs == nil {
		msgs = []api.ChatMessage{}
	}
	b.writeJSON(w, http.StatusOK, msgs)
}

func (b *Backend) handleCheckChildren(w http.ResponseWriter, r *http.Request) {
	carpoolID, err := strconv.ParseInt(r.URL.Query().Get("carpool_id"), 10, 64)
	if err != nil {
		b.jsonError(w, http.StatusBadRequest, "Carpool ID is required!")
		return
	}

	b.mu.Lock()
	children := b.CarpoolChildren[carpoolID]
	b.mu.Unlock()

	switch {
	case len(children) > 1:
		b.writeJSON(w, http.StatusOK, map[string]any{"multiple": true, "children": children})
	case len(children) == 1:
		b.writeJSON(w, http.StatusOK, map[string]any{"multiple": false, "child_id": children[0].ChildID})
	default:
		b.jsonError(w, http.StatusNotFound, "No children found for this role.")
	}
}

func (b *Backend) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var req api.AddChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		b.jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.MembershipNumber == "" {
		b.jsonError(w, http.StatusBadRequest, "Missing required fields!")
		return
	}

	b.mu.Lock()
	b.AddedChildren = append(b.AddedChildren, req)
	b.mu.Unlock()
	b.writeJSON(w, http.StatusCreated, map[string]string{"message": "Child added successfully!"})
}

func (b *Backend) handleListCarpools(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeJSON(w, http.StatusOK, map[string][]api.Carpool{"carpools": b.Carpools})
}

func (b *Backend) handleActivities(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeJSON(w, http.StatusOK, map[string][]api.Activity{"events": b.Activities})
}

func (b *Backend) handleCars(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeJSON(w, http.StatusOK, map[string][]api.Car{"cars": b.Cars})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (b *Backend) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &wsConn{conn: conn, rooms: map[int64]bool{}}
	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.conns, c)
		b.mu.Unlock()
		conn.Close()
	}()

	for {
		var ev realtime.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		b.handleEvent(c, ev)
	}
}

func (b *Backend) handleEvent(c *wsConn, ev realtime.Event) {
	switch ev.Type {
	case realtime.EventJoinUser:
		var p realtime.JoinUser
		if json.Unmarshal(ev.Data, &p) == nil {
			b.mu.Lock()
			b.JoinedUsers = append(b.JoinedUsers, p.UserID)
			pending := b.JoinNotification
			b.mu.Unlock()
			if pending != nil {
				data, _ := json.Marshal(pending)
				_ = c.write(realtime.Event{Type: realtime.EventNotification, Data: data})
			}
		}

	case realtime.EventJoinCarpool:
		var p realtime.RoomChange
		if json.Unmarshal(ev.Data, &p) == nil {
			b.mu.Lock()
			c.rooms[p.CarpoolID] = true
			b.JoinedRooms = append(b.JoinedRooms, p.CarpoolID)
			b.mu.Unlock()
		}

	case realtime.EventLeaveCarpool:
		var p realtime.RoomChange
		if json.Unmarshal(ev.Data, &p) == nil {
			b.mu.Lock()
			delete(c.rooms, p.CarpoolID)
			b.LeftRooms = append(b.LeftRooms, p.CarpoolID)
			b.mu.Unlock()
		}

	case realtime.EventSendMessage:
		var p SentMessage
		if json.Unmarshal(ev.Data, &p) != nil {
			return
		}
		b.mu.Lock()
		b.SentMessages = append(b.SentMessages, p)
		b.nextMessageID++
		msg := api.ChatMessage{
			ID:         b.nextMessageID,
			CarpoolID:  p.CarpoolID,
			SenderID:   p.SenderID,
			SenderName: p.SenderName,
			Content:    p.Content,
			Timestamp:  api.Time{Time: time.Now().UTC()},
		}
		b.Messages[p.CarpoolID] = append(b.Messages[p.CarpoolID], msg)
		b.mu.Unlock()

		// Echo to room members, the sender included.
		b.PushMessage(p.CarpoolID, msg)
	}
}

// PushNotification delivers a notification event to every connection, the
// way the real broker fans out to all of a user's sockets.
func (b *Backend) PushNotification(n api.Notification) {
	data, _ := json.Marshal(n)
	ev := realtime.Event{Type: realtime.EventNotification, Data: data}

	b.mu.Lock()
	conns := make([]*wsConn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		_ = c.write(ev)
	}
}

// PushMessage delivers a new_message event to every member of the carpool's
// room.
func (b *Backend) PushMessage(carpoolID int64, msg api.ChatMessage) {
	envelope := struct {
		CarpoolID int64           `json:"carpool_id"`
		Message   api.ChatMessage `json:"message"`
	}{CarpoolID: carpoolID, Message: msg}
	data, _ := json.Marshal(envelope)
	ev := realtime.Event{Type: realtime.EventNewMessage, Data: data}

	b.mu.Lock()
	var members []*wsConn
	for c := range b.conns {
		if c.rooms[carpoolID] {
			members = append(members, c)
		}
	}
	b.mu.Unlock()

	for _, c := range members {
		_ = c.write(ev)
	}
}

// BroadcastMessage delivers a new_message event to every connection
// regardless of room membership, simulating unrelated room traffic (or a
// redelivery) arriving on the shared connection.
func (b *Backend) BroadcastMessage(carpoolID int64, msg api.ChatMessage) {
	envelope := struct {
		CarpoolID int64           `json:"carpool_id"`
		Message   api.ChatMessage `json:"message"`
	}{CarpoolID: carpoolID, Message: msg}
	data, _ := json.Marshal(envelope)
	ev := realtime.Event{Type: realtime.EventNewMessage, Data: data}

	b.mu.Lock()
	conns := make([]*wsConn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		_ = c.write(ev)
	}
}

// Joined returns a copy of the recorded join_carpool carpool ids.
func (b *Backend) Joined() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.JoinedRooms...)
}

// Left returns a copy of the recorded leave_carpool carpool ids.
func (b *Backend) Left() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.LeftRooms...)
}

// Sent returns a copy of the recorded send_message payloads.
func (b *Backend) Sent() []SentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SentMessage(nil), b.SentMessages...)
}

// MarkReads returns a copy of the recorded batch mark-read id lists.
func (b *Backend) MarkReads() [][]int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][]int64, len(b.MarkReadCalls))
	for i, ids := range b.MarkReadCalls {
		out[i] = append([]int64(nil), ids...)
	}
	return out
}

// CarpoolReads returns a copy of the recorded carpool-scoped mark-read ids.
func (b *Backend) CarpoolReads() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.CarpoolReadCalls...)
}

// Children returns a copy of the recorded add-child requests.
func (b *Backend) Children() []api.AddChildRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.AddChildRequest(nil), b.AddedChildren...)
}

// Users returns a copy of the recorded join_user ids.
func (b *Backend) Users() []int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.JoinedUsers...)
}

// RoomMembers reports how many live connections are joined to a room.
func (b *Backend) RoomMembers(carpoolID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for c := range b.conns {
		if c.rooms[carpoolID] {
			n++
		}
	}
	return n
}
