package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/notify"
	"github.com/scoutpool/scoutpool/internal/realtime"
	"github.com/scoutpool/scoutpool/internal/testutil"
)

const feedUserID = 42

// feedFixture is a logged-in REST client plus a live realtime connection
// against one fake backend.
type feedFixture struct {
	backend *testutil.Backend
	feed    *notify.Feed
}

func newFeedFixture(t *testing.T, backend *testutil.Backend) *feedFixture {
	t.Helper()

	backend.User = api.User{ID: feedUserID, Email: "astrid@example.se", FirstName: "Astrid", LastName: "Berg", Roles: []string{"parent"}}

	client := api.NewClient(backend.URL(), t.TempDir(), zerolog.Nop())
	require.NoError(t, client.Login(context.Background(), "astrid@example.se", "hunter2"))

	rt, err := realtime.Dial(context.Background(), backend.WSURL(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })

	return &feedFixture{
		backend: backend,
		feed:    notify.New(client, rt, zerolog.Nop()),
	}
}

func TestOpenLoadsHistory(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.Notifications = []api.Notification{
		{ID: 3, Message: "newest", IsRead: false},
		{ID: 2, Message: "older", IsRead: false},
		{ID: 1, Message: "oldest", IsRead: true},
	}
	backend.UnreadCount = 2

	fx := newFeedFixture(t, backend)
	require.Equal(t, notify.StateIdle, fx.feed.State())

	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()

	assert.Equal(t, notify.StateReady, fx.feed.State())
	assert.Equal(t, 2, fx.feed.UnreadCount())
	got := fx.feed.Notifications()
	require.Len(t, got, 3)
	assert.Equal(t, "newest", got[0].Message)

	// The backend saw the user's realtime scope join.
	require.Eventually(t, func() bool {
		users := fx.backend.Users()
		return len(users) == 1 && users[0] == int64(feedUserID)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestOpenFetchFailureLeavesFeedEmptyButLive(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.FailNotifications = true

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()

	assert.Equal(t, notify.StateReady, fx.feed.State())
	assert.Empty(t, fx.feed.Notifications())
	assert.Zero(t, fx.feed.UnreadCount())

	// Live pushes still land despite the failed fetch.
	fx.backend.PushNotification(api.Notification{ID: 7, Message: "still alive"})
	require.Eventually(t, func() bool {
		return fx.feed.UnreadCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPushPrependsAndBumpsUnread(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.Notifications = []api.Notification{{ID: 1, Message: "existing", IsRead: true}}
	backend.UnreadCount = 0

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()

	fx.backend.PushNotification(api.Notification{ID: 2, Message: "seat opened", CarpoolID: 7})

	require.Eventually(t, func() bool {
		return fx.feed.UnreadCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	got := fx.feed.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, "seat opened", got[0].Message, "pushes land at the top of the feed")
	assert.Equal(t, "existing", got[1].Message)
}

func TestPushWithoutIDIsDiscarded(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()

	fx.backend.PushNotification(api.Notification{Message: "no id"})
	fx.backend.PushNotification(api.Notification{ID: 5, Message: "has id"})

	require.Eventually(t, func() bool {
		return fx.feed.UnreadCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Len(t, fx.feed.Notifications(), 1)
}

func TestJoinTriggeredPushIsNotLost(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.Notifications = []api.Notification{{ID: 1, Message: "from history", IsRead: true}}
	backend.UnreadCount = 0
	// The broker delivers this the instant join_user arrives, before the
	// history fetch has returned.
	backend.JoinNotification = &api.Notification{ID: 77, Message: "pending at join"}

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()

	require.Eventually(t, func() bool {
		return fx.feed.UnreadCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	got := fx.feed.Notifications()
	require.Len(t, got, 2)
	assert.Equal(t, "pending at join", got[0].Message)
	assert.Equal(t, "from history", got[1].Message)
}

func TestUpdatesDeliversLivePushes(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()

	fx.backend.PushNotification(api.Notification{ID: 5, Message: "for the renderer"})

	select {
	case n := <-fx.feed.Updates():
		assert.Equal(t, "for the renderer", n.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("update never delivered")
	}
}

func TestMarkAllAsRead(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.Notifications = []api.Notification{
		{ID: 3, IsRead: false},
		{ID: 2, IsRead: true},
		{ID: 1, IsRead: false},
	}
	backend.UnreadCount = 2

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()

	require.NoError(t, fx.feed.MarkAllAsRead(context.Background()))

	assert.Zero(t, fx.feed.UnreadCount())
	for _, n := range fx.feed.Notifications() {
		assert.True(t, n.IsRead)
	}

	calls := fx.backend.MarkReads()
	require.Len(t, calls, 1)
	assert.ElementsMatch(t, []int64{3, 1}, calls[0], "only unread ids go in the batch")
}

func TestMarkAllAsReadNothingUnread(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.Notifications = []api.Notification{{ID: 1, IsRead: true}}

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()

	require.NoError(t, fx.feed.MarkAllAsRead(context.Background()))
	assert.Empty(t, fx.backend.MarkReads(), "no request when nothing is unread")
}

func TestMarkAllAsReadFailureLeavesStateUntouched(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.Notifications = []api.Notification{{ID: 1, IsRead: false}}
	backend.UnreadCount = 1
	backend.FailMarkRead = true

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()

	require.Error(t, fx.feed.MarkAllAsRead(context.Background()))

	assert.Equal(t, 1, fx.feed.UnreadCount())
	got := fx.feed.Notifications()
	require.Len(t, got, 1)
	assert.False(t, got[0].IsRead)
}

func TestCloseStopsPushes(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	fx.feed.Close()

	fx.backend.PushNotification(api.Notification{ID: 9, Message: "too late"})

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, fx.feed.UnreadCount())
	assert.Empty(t, fx.feed.Notifications())
}

func TestOpenIsIdempotent(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.Notifications = []api.Notification{{ID: 1}}

	fx := newFeedFixture(t, backend)
	fx.feed.Open(context.Background(), feedUserID)
	defer fx.feed.Close()
	fx.feed.Open(context.Background(), feedUserID)

	require.Eventually(t, func() bool {
		return len(fx.backend.Users()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, fx.backend.Users(), 1, "reopening must not re-join or re-fetch")
	assert.Len(t, fx.feed.Notifications(), 1)
}
