// Package chat renders an ordered, paginated, live-updating transcript for
// one carpool at a time.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/metrics"
	"github.com/scoutpool/scoutpool/internal/realtime"
)

// chatNotificationType scopes the best-effort mark-read call issued when a
// transcript opens.
const chatNotificationType = "chat"

var (
	// ErrEmptyMessage is returned when Send is called with no content.
	ErrEmptyMessage = errors.New("chat: message content is empty")
	// ErrNoUser is returned when Send is called before the user is known.
	ErrNoUser = errors.New("chat: user identity not available")
)

// MessageAPI is the slice of the REST client the channel depends on.
type MessageAPI interface {
	CarpoolMessages(ctx context.Context, carpoolID int64) ([]api.ChatMessage, error)
	MarkCarpoolNotificationsRead(ctx context.Context, carpoolID int64, notificationType string) error
}

// Emitter is the realtime surface the channel depends on.
// *realtime.Client satisfies it.
type Emitter interface {
	Subscribe(types ...string) *realtime.Subscription
	Emit(eventType string, payload any) error
}

// messageEnvelope is the wire shape of a new_message push: the room id at
// the top level, the message itself nested.
type messageEnvelope struct {
	CarpoolID int64           `json:"carpool_id"`
	Message   api.ChatMessage `json:"message"`
}

// outgoingMessage is the send_message payload.
type outgoingMessage struct {
	CarpoolID  int64  `json:"carpool_id"`
	Content    string `json:"content"`
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name"`
}

// Channel is the live transcript for exactly one carpool. Open it, consume
// Updates for re-rendering, and Close it (or Switch it) when the view goes
// away so the room membership and subscription are released.
type Channel struct {
	client MessageAPI
	rt     Emitter
	log    zerolog.Logger

	userID     int64
	senderName string

	mu        sync.Mutex
	carpoolID int64
	win       Window
	closed    bool
	sub       *realtime.Subscription

	updates chan api.ChatMessage
}

// NewChannel creates a closed channel for the given user identity.
func NewChannel(client MessageAPI, rt Emitter, userID int64, senderName string, logger zerolog.Logger) *Channel {
	return &Channel{
		client:     client,
		rt:         rt,
		userID:     userID,
		senderName: senderName,
		log:        logger.With().Str("component", "chat").Logger(),
		updates:    make(chan api.ChatMessage, 32),
	}
}

// Open loads the carpool's history, marks its chat notifications read
// (best-effort), and joins the realtime room. The history fetch completes
// before the room join is emitted, so a live push cannot precede the
// historical merge.
func (c *Channel) Open(ctx context.Context, carpoolID int64) error {
	c.mu.Lock()
	if c.sub != nil {
		c.mu.Unlock()
		return errors.New("chat: channel already open")
	}
	c.carpoolID = carpoolID
	c.closed = false
	c.mu.Unlock()

	msgs, err := c.client.CarpoolMessages(ctx, carpoolID)
	if err != nil {
		// The transcript stays empty but live; the subscription below still
		// delivers new messages.
		c.log.Warn().Err(err).Int64("carpool_id", carpoolID).Msg("message history fetch failed")
		msgs = nil
	}

	c.mu.Lock()
	c.win.SetHistory(msgs)
	c.mu.Unlock()

	if err := c.client.MarkCarpoolNotificationsRead(ctx, carpoolID, chatNotificationType); err != nil {
		c.log.Warn().Err(err).Int64("carpool_id", carpoolID).Msg("chat mark-read failed")
	}

	sub := c.rt.Subscribe(realtime.EventNewMessage)
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	if err := c.rt.Emit(realtime.EventJoinCarpool, realtime.RoomChange{CarpoolID: carpoolID, UserID: c.userID}); err != nil {
		// Unwind so the channel is not left half-open: a retry of Open must
		// not see it as open, and Close must not leave a room never joined.
		sub.Close()
		c.mu.Lock()
		c.sub = nil
		c.mu.Unlock()
		return err
	}

	go c.consume(sub)
	return nil
}

func (c *Channel) consume(sub *realtime.Subscription) {
	for ev := range sub.Events() {
		var env messageEnvelope
		if err := json.Unmarshal(ev.Data, &env); err != nil {
			c.log.Warn().Err(err).Msg("discarding malformed new_message push")
			continue
		}
		c.applyPush(env)
	}
}

// applyPush appends one live message if it belongs to this channel's
// carpool. Messages for other rooms on the shared connection are discarded.
func (c *Channel) applyPush(env messageEnvelope) {
	c.mu.Lock()
	if c.closed || env.CarpoolID != c.carpoolID {
		c.mu.Unlock()
		return
	}
	msg := env.Message
	if msg.CarpoolID == 0 {
		msg.CarpoolID = env.CarpoolID
	}
	c.win.Append(msg)
	c.mu.Unlock()

	select {
	case c.updates <- msg:
	default:
		// A stalled renderer only loses the wake-up, not the message.
	}
}

// Send emits one message over the realtime channel. There is no optimistic
// local append: the message shows up when the server echoes it back.
func (c *Channel) Send(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	if c.userID == 0 {
		return ErrNoUser
	}

	c.mu.Lock()
	carpoolID := c.carpoolID
	c.mu.Unlock()

	err := c.rt.Emit(realtime.EventSendMessage, outgoingMessage{
		CarpoolID:  carpoolID,
		Content:    content,
		SenderID:   c.userID,
		SenderName: c.senderName,
	})
	if err != nil {
		return err
	}
	metrics.MessagesSent.Inc()
	return nil
}

// ShowMore reveals older messages; see Window.ShowMore.
func (c *Channel) ShowMore() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.ShowMore()
}

// Visible returns the visible transcript slice.
func (c *Channel) Visible() []api.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := c.win.Visible()
	out := make([]api.ChatMessage, len(visible))
	copy(out, visible)
	return out
}

// Messages returns the full ordered history.
func (c *Channel) Messages() []api.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	all := c.win.All()
	out := make([]api.ChatMessage, len(all))
	copy(out, all)
	return out
}

// HasMore reports whether older messages exist above the visible window.
func (c *Channel) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.win.HasMore()
}

// Updates delivers live messages accepted by this channel, for renderers.
func (c *Channel) Updates() <-chan api.ChatMessage {
	return c.updates
}

// Switch leaves the current room and opens a new one. The old subscription
// is released before the new one is established, so no handler accumulates
// across channel switches.
func (c *Channel) Switch(ctx context.Context, carpoolID int64) error {
	c.teardown()
	return c.Open(ctx, carpoolID)
}

// Close leaves the room and releases the subscription. Further pushes are
// not applied.
func (c *Channel) Close() {
	c.teardown()
}

func (c *Channel) teardown() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	carpoolID := c.carpoolID
	wasOpen := sub != nil
	c.closed = true
	c.mu.Unlock()

	if !wasOpen {
		return
	}

	if err := c.rt.Emit(realtime.EventLeaveCarpool, realtime.RoomChange{CarpoolID: carpoolID, UserID: c.userID}); err != nil {
		c.log.Debug().Err(err).Msg("leave_carpool emit failed")
	}
	sub.Close()
}
