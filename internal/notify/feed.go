// Package notify maintains the user's notification feed: historical fetch,
// live push merge, unread-count bookkeeping, and mark-as-read.
package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/metrics"
	"github.com/scoutpool/scoutpool/internal/realtime"
)

// State is the feed lifecycle. Live events append directly into StateReady
// without a loading transition.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
)

// NotificationAPI is the slice of the REST client the feed depends on.
type NotificationAPI interface {
	Notifications(ctx context.Context) (*api.NotificationsResponse, error)
	MarkNotificationsRead(ctx context.Context, ids []int64) error
}

// Emitter joins the user's realtime scope and yields subscriptions.
// *realtime.Client satisfies it.
type Emitter interface {
	Subscribe(types ...string) *realtime.Subscription
	Emit(eventType string, payload any) error
}

// Feed owns the in-memory notification collection for as long as it is
// open. Pushed notifications are prepended as they arrive; no
// de-duplication against the historical fetch is performed, so transport
// redelivery can surface a duplicate.
type Feed struct {
	client NotificationAPI
	rt     Emitter
	log    zerolog.Logger

	mu            sync.Mutex
	state         State
	notifications []api.Notification
	unread        int
	closed        bool

	sub *realtime.Subscription

	updates chan api.Notification
}

// New creates an idle feed.
func New(client NotificationAPI, rt Emitter, logger zerolog.Logger) *Feed {
	return &Feed{
		client:  client,
		rt:      rt,
		log:     logger.With().Str("component", "notify").Logger(),
		updates: make(chan api.Notification, 32),
	}
}

// Open subscribes to live pushes, joins the user's realtime scope, and then
// performs the historical fetch. The subscription is established before
// join_user is emitted, so a push triggered by the join cannot be lost; a
// push arriving during the fetch buffers in the subscription and is applied
// after the historical merge. A failed fetch is logged and leaves the feed
// empty but live.
func (f *Feed) Open(ctx context.Context, userID int64) {
	f.mu.Lock()
	if f.state != StateIdle {
		f.mu.Unlock()
		return
	}
	f.state = StateLoading
	f.mu.Unlock()

	sub := f.rt.Subscribe(realtime.EventNotification)

	if err := f.rt.Emit(realtime.EventJoinUser, realtime.JoinUser{UserID: userID}); err != nil {
		f.log.Warn().Err(err).Msg("join_user emit failed")
	}

	resp, err := f.client.Notifications(ctx)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		sub.Close()
		return
	}
	if err != nil {
		f.log.Warn().Err(err).Msg("notification fetch failed")
	} else {
		f.notifications = resp.Notifications
		f.unread = resp.UnreadCount
	}
	f.state = StateReady
	f.sub = sub
	f.mu.Unlock()

	go f.consume(sub)
}

func (f *Feed) consume(sub *realtime.Subscription) {
	for ev := range sub.Events() {
		var n api.Notification
		if err := json.Unmarshal(ev.Data, &n); err != nil {
			f.log.Warn().Err(err).Msg("discarding malformed notification push")
			continue
		}
		f.applyPush(n)
	}
}

// applyPush prepends one pushed notification and bumps the unread count.
func (f *Feed) applyPush(n api.Notification) {
	if n.ID == 0 {
		f.log.Warn().Msg("discarding notification push without id")
		return
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.notifications = append([]api.Notification{n}, f.notifications...)
	f.unread++
	f.mu.Unlock()

	select {
	case f.updates <- n:
	default:
		// A stalled renderer only loses the wake-up, not the notification.
	}
}

// Updates delivers live notifications accepted by this feed, for renderers.
func (f *Feed) Updates() <-chan api.Notification {
	return f.updates
}

// MarkAllAsRead sends one batch mark-read request for every unread
// notification. On success each stored notification is flipped to read and
// the unread count resets to zero; on failure the state is left untouched
// and the error is logged.
func (f *Feed) MarkAllAsRead(ctx context.Context) error {
	f.mu.Lock()
	var ids []int64
	for _, n := range f.notifications {
		if !n.IsRead {
			ids = append(ids, n.ID)
		}
	}
	f.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}

	if err := f.client.MarkNotificationsRead(ctx, ids); err != nil {
		f.log.Warn().Err(err).Int("count", len(ids)).Msg("mark-read request failed")
		return err
	}

	f.mu.Lock()
	flipped := make([]api.Notification, len(f.notifications))
	for i, n := range f.notifications {
		n.IsRead = true
		flipped[i] = n
	}
	f.notifications = flipped
	f.unread = 0
	f.mu.Unlock()

	metrics.NotificationsMarkedRead.Add(float64(len(ids)))
	return nil
}

// Notifications returns a copy of the current collection, newest first.
func (f *Feed) Notifications() []api.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Notification, len(f.notifications))
	copy(out, f.notifications)
	return out
}

// UnreadCount returns the current unread total.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// State returns the feed lifecycle state.
func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Close releases the live subscription. No further pushes are applied.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	sub := f.sub
	f.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}
