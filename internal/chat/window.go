package chat

import (
	"sort"

	"github.com/scoutpool/scoutpool/internal/api"
)

// DefaultWindow is how many messages a freshly opened transcript shows.
const DefaultWindow = 10

// PageSize is how many more messages each backward-pagination step reveals.
const PageSize = 10

// Window is the paginated view over a channel's full message history. The
// visible slice is always the trailing portion of the full history, and
// within one channel session it only ever grows.
type Window struct {
	all     []api.ChatMessage
	visible int
}

// SetHistory replaces the full history with msgs sorted ascending by
// timestamp (stable, so equal timestamps keep their input order) and resets
// the visible window to the trailing DefaultWindow entries.
func (w *Window) SetHistory(msgs []api.ChatMessage) {
	w.all = make([]api.ChatMessage, len(msgs))
	copy(w.all, msgs)
	sort.SliceStable(w.all, func(i, j int) bool {
		return w.all[i].Timestamp.Before(w.all[j].Timestamp.Time)
	})
	w.visible = len(w.all)
	if w.visible > DefaultWindow {
		w.visible = DefaultWindow
	}
}

// Append adds one live message to the end of the history and grows the
// visible window to include it. No re-sort: the server is trusted to
// deliver live messages in order.
func (w *Window) Append(msg api.ChatMessage) {
	w.all = append(w.all, msg)
	w.visible++
}

// ShowMore expands the visible window by PageSize and returns how many
// previously hidden messages were revealed, so a renderer can keep the
// formerly-top message anchored.
func (w *Window) ShowMore() int {
	before := w.visible
	w.visible += PageSize
	if w.visible > len(w.all) {
		w.visible = len(w.all)
	}
	return w.visible - before
}

// Visible returns the trailing visible slice of the history.
func (w *Window) Visible() []api.ChatMessage {
	return w.all[len(w.all)-w.visible:]
}

// All returns the full ordered history.
func (w *Window) All() []api.ChatMessage {
	return w.all
}

// HasMore reports whether older messages exist above the visible window.
func (w *Window) HasMore() bool {
	return len(w.all) > w.visible
}

// Len returns the full history length.
func (w *Window) Len() int {
	return len(w.all)
}
