// Package realtime maintains the process-wide websocket connection to the
// carpool service and fans incoming events out to subscribers.
//
// The connection is shared: the notification feed and every open chat
// channel subscribe on the same Client, and each subscriber is responsible
// for discarding events not addressed to it (by comparing an id field in
// the payload). There is no reconnect handling; events missed during a
// disconnect are not replayed.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/scoutpool/scoutpool/internal/metrics"
)

// subscriptionBuffer is the per-subscriber event backlog. Events beyond it
// are dropped rather than blocking the dispatch loop.
const subscriptionBuffer = 32

// ErrClosed is returned by Emit after the connection has been closed.
var ErrClosed = errors.New("realtime: connection closed")

// Client is the process-wide realtime connection.
type Client struct {
	id   string
	conn *websocket.Conn
	log  zerolog.Logger

	mu   sync.Mutex
	subs map[*Subscription]struct{}

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

// Dial opens the realtime connection and starts its read and write loops.
func Dial(ctx context.Context, url string, logger zerolog.Logger) (*Client, error) {
	id := uuid.NewString()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url+"?client_id="+id, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c := &Client{
		id:   id,
		conn: conn,
		log:  logger.With().Str("component", "realtime").Str("client_id", id).Logger(),
		subs: make(map[*Subscription]struct{}),
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}

	go c.readLoop()
	go c.writeLoop()

	c.log.Debug().Str("url", url).Msg("realtime connection established")
	return c, nil
}

// Subscribe registers interest in the given event types. The returned
// Subscription must be closed when the consumer's scope ends.
func (c *Client) Subscribe(types ...string) *Subscription {
	s := &Subscription{
		c:      c,
		events: make(chan Event, subscriptionBuffer),
		types:  make(map[string]struct{}, len(types)),
	}
	for _, t := range types {
		s.types[t] = struct{}{}
	}

	c.mu.Lock()
	c.subs[s] = struct{}{}
	c.mu.Unlock()
	return s
}

// Emit sends one event to the server. The payload is marshaled into the
// event's data field. Emit never waits for an acknowledgement.
func (c *Client) Emit(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		return err
	}

	// Checked first: the send channel is buffered, so a select over both
	// could still accept frames after close.
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Close tears down the connection. All subscriptions are drained and their
// channels closed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()

		c.mu.Lock()
		for s := range c.subs {
			delete(c.subs, s)
			close(s.events)
		}
		c.mu.Unlock()
	})
	return nil
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Debug().Err(err).Msg("realtime connection lost")
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Warn().Err(err).Msg("discarding malformed realtime frame")
			continue
		}

		metrics.RealtimeEventsTotal.WithLabelValues(ev.Type).Inc()
		c.dispatch(ev)
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug().Err(err).Msg("realtime write failed")
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// dispatch delivers one event to every subscription interested in its type.
// A subscriber that is not keeping up has the event dropped rather than
// stalling delivery to the others.
func (c *Client) dispatch(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for s := range c.subs {
		if _, ok := s.types[ev.Type]; !ok {
			continue
		}
		select {
		case s.events <- ev:
		default:
			metrics.RealtimeEventsDropped.Inc()
			c.log.Warn().Str("type", ev.Type).Msg("subscriber backlog full, event dropped")
		}
	}
}

func (c *Client) unsubscribe(s *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[s]; ok {
		delete(c.subs, s)
		close(s.events)
	}
}

// Subscription is one consumer's view of the shared connection.
type Subscription struct {
	c      *Client
	events chan Event
	types  map[string]struct{}

	closeOnce sync.Once
}

// Events returns the ordered stream of matching events. The channel is
// closed when the subscription or the underlying connection closes.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close deregisters the subscription. No events are delivered afterwards.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.c.unsubscribe(s)
	})
}
