package chat_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutpool/scoutpool/internal/api"
	"github.com/scoutpool/scoutpool/internal/chat"
	"github.com/scoutpool/scoutpool/internal/realtime"
	"github.com/scoutpool/scoutpool/internal/testutil"
)

const (
	chatUserID   = 42
	chatUserName = "Astrid Berg"
)

func newChatChannel(t *testing.T, backend *testutil.Backend) *chat.Channel {
	t.Helper()

	backend.User = api.User{ID: chatUserID, Email: "astrid@example.se", FirstName: "Astrid", LastName: "Berg", Roles: []string{"parent"}}

	client := api.NewClient(backend.URL(), t.TempDir(), zerolog.Nop())
	require.NoError(t, client.Login(context.Background(), "astrid@example.se", "hunter2"))

	rt, err := realtime.Dial(context.Background(), backend.WSURL(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })

	return chat.NewChannel(client, rt, chatUserID, chatUserName, zerolog.Nop())
}

func seedHistory(backend *testutil.Backend, carpoolID int64, n int) {
	base := time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)
	if backend.Messages == nil {
		backend.Messages = map[int64][]api.ChatMessage{}
	}
	for i := 0; i < n; i++ {
		backend.Messages[carpoolID] = append(backend.Messages[carpoolID], api.ChatMessage{
			ID:        int64(i + 1),
			CarpoolID: carpoolID,
			SenderID:  7,
			Content:   fmt.Sprintf("history %d", i+1),
			Timestamp: api.Time{Time: base.Add(time.Duration(i) * time.Minute)},
		})
	}
}

func TestOpenLoadsHistoryAndJoinsRoom(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	seedHistory(backend, 7, 25)

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))
	defer ch.Close()

	assert.Len(t, ch.Messages(), 25)
	visible := ch.Visible()
	require.Len(t, visible, chat.DefaultWindow)
	assert.Equal(t, "history 25", visible[len(visible)-1].Content)
	assert.True(t, ch.HasMore())

	require.Eventually(t, func() bool {
		return backend.RoomMembers(7) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Opening marked the carpool's chat notifications read.
	reads := backend.CarpoolReads()
	require.Len(t, reads, 1)
	assert.Equal(t, int64(7), reads[0])
}

func TestOpenWithFailedHistoryStaysLive(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.FailMessages = true

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))
	defer ch.Close()

	assert.Empty(t, ch.Messages())

	require.Eventually(t, func() bool {
		return backend.RoomMembers(7) == 1
	}, 2*time.Second, 10*time.Millisecond)

	backend.PushMessage(7, api.ChatMessage{ID: 100, CarpoolID: 7, Content: "fresh"})
	require.Eventually(t, func() bool {
		return len(ch.Messages()) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSendRoundTrip(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))
	defer ch.Close()

	require.Eventually(t, func() bool {
		return backend.RoomMembers(7) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ch.Send("  see you at the trailhead  "))

	// No optimistic append: the message arrives via the server echo.
	select {
	case msg := <-ch.Updates():
		assert.Equal(t, "see you at the trailhead", msg.Content, "content is trimmed before sending")
		assert.Equal(t, int64(chatUserID), msg.SenderID)
		assert.Equal(t, chatUserName, msg.SenderName)
		assert.NotZero(t, msg.ID, "the server assigns the id")
	case <-time.After(2 * time.Second):
		t.Fatal("echo never arrived")
	}

	msgs := ch.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "see you at the trailhead", msgs[0].Content)

	sent := backend.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(7), sent[0].CarpoolID)
}

func TestSendValidation(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))
	defer ch.Close()

	assert.ErrorIs(t, ch.Send(""), chat.ErrEmptyMessage)
	assert.ErrorIs(t, ch.Send("   \n\t "), chat.ErrEmptyMessage)

	rt, err := realtime.Dial(context.Background(), backend.WSURL(), zerolog.Nop())
	require.NoError(t, err)
	defer rt.Close()
	client := api.NewClient(backend.URL(), t.TempDir(), zerolog.Nop())
	anonymous := chat.NewChannel(client, rt, 0, "", zerolog.Nop())
	assert.ErrorIs(t, anonymous.Send("hello"), chat.ErrNoUser)
}

func TestForeignCarpoolMessagesAreIgnored(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	seedHistory(backend, 7, 3)

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))
	defer ch.Close()

	require.Eventually(t, func() bool {
		return backend.RoomMembers(7) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Traffic for another carpool arriving on the shared connection.
	backend.BroadcastMessage(99, api.ChatMessage{ID: 500, CarpoolID: 99, Content: "wrong room"})
	backend.PushMessage(7, api.ChatMessage{ID: 501, CarpoolID: 7, Content: "right room"})

	require.Eventually(t, func() bool {
		return len(ch.Messages()) == 4
	}, 2*time.Second, 10*time.Millisecond)

	for _, msg := range ch.Messages() {
		assert.NotEqual(t, "wrong room", msg.Content)
	}
	visible := ch.Visible()
	assert.Equal(t, "right room", visible[len(visible)-1].Content)
}

func TestLivePushGrowsVisibleWindow(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	seedHistory(backend, 7, 25)

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))
	defer ch.Close()
	require.Len(t, ch.Visible(), chat.DefaultWindow)

	require.Eventually(t, func() bool {
		return backend.RoomMembers(7) == 1
	}, 2*time.Second, 10*time.Millisecond)

	backend.PushMessage(7, api.ChatMessage{ID: 600, CarpoolID: 7, Content: "live"})

	require.Eventually(t, func() bool {
		return len(ch.Visible()) == chat.DefaultWindow+1
	}, 2*time.Second, 10*time.Millisecond)

	visible := ch.Visible()
	assert.Equal(t, "live", visible[len(visible)-1].Content)
	assert.Equal(t, "history 16", visible[0].Content, "older visible messages stay in view")
}

func TestShowMoreRevealsOlderHistory(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	seedHistory(backend, 7, 25)

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))
	defer ch.Close()

	assert.Equal(t, chat.PageSize, ch.ShowMore())
	assert.Len(t, ch.Visible(), 20)
	assert.Equal(t, 5, ch.ShowMore())
	assert.False(t, ch.HasMore())
}

func TestSwitchLeavesOldRoomAndJoinsNew(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	seedHistory(backend, 7, 2)
	seedHistory(backend, 8, 3)

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))
	defer ch.Close()

	require.Eventually(t, func() bool {
		return backend.RoomMembers(7) == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ch.Switch(context.Background(), 8))

	require.Eventually(t, func() bool {
		return backend.RoomMembers(7) == 0 && backend.RoomMembers(8) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []int64{7}, backend.Left())
	assert.Equal(t, []int64{7, 8}, backend.Joined())
	assert.Len(t, ch.Messages(), 3, "the transcript is the new carpool's history")

	// Traffic addressed to the old carpool no longer lands anywhere.
	backend.BroadcastMessage(7, api.ChatMessage{ID: 700, CarpoolID: 7, Content: "stale"})
	backend.PushMessage(8, api.ChatMessage{ID: 701, CarpoolID: 8, Content: "current"})

	require.Eventually(t, func() bool {
		return len(ch.Messages()) == 4
	}, 2*time.Second, 10*time.Millisecond)
	for _, msg := range ch.Messages() {
		assert.NotEqual(t, "stale", msg.Content)
	}
}

func TestCloseLeavesRoomAndStopsPushes(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))

	require.Eventually(t, func() bool {
		return backend.RoomMembers(7) == 1
	}, 2*time.Second, 10*time.Millisecond)

	ch.Close()

	require.Eventually(t, func() bool {
		return backend.RoomMembers(7) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{7}, backend.Left())

	backend.BroadcastMessage(7, api.ChatMessage{ID: 800, CarpoolID: 7, Content: "after close"})
	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, ch.Messages())
}

func TestCloseWithoutOpenIsQuiet(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()

	ch := newChatChannel(t, backend)
	ch.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, backend.Left(), "never-opened channel must not emit leave_carpool")
}

func TestOpenFailedJoinUnwinds(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()
	backend.User = api.User{ID: chatUserID, Email: "astrid@example.se", FirstName: "Astrid", LastName: "Berg"}

	client := api.NewClient(backend.URL(), t.TempDir(), zerolog.Nop())
	require.NoError(t, client.Login(context.Background(), "astrid@example.se", "hunter2"))

	rt, err := realtime.Dial(context.Background(), backend.WSURL(), zerolog.Nop())
	require.NoError(t, err)
	rt.Close()

	ch := chat.NewChannel(client, rt, chatUserID, chatUserName, zerolog.Nop())

	// The room join cannot be emitted on a dead connection.
	require.ErrorIs(t, ch.Open(context.Background(), 7), realtime.ErrClosed)

	// The failure must not leave the channel half-open: a retry hits the
	// same emit error, not a stuck "already open" state.
	require.ErrorIs(t, ch.Open(context.Background(), 7), realtime.ErrClosed)

	// And closing must not announce leaving a room that was never joined.
	ch.Close()
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, backend.Left())
}

func TestOpenTwiceFails(t *testing.T) {
	backend := testutil.NewBackend()
	defer backend.Close()

	ch := newChatChannel(t, backend)
	require.NoError(t, ch.Open(context.Background(), 7))
	defer ch.Close()

	assert.Error(t, ch.Open(context.Background(), 8))
}
