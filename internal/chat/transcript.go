package chat

import "github.com/scoutpool/scoutpool/internal/api"

// Entry is one transcript line plus its rendering annotations.
type Entry struct {
	Message api.ChatMessage
	// NewDay is set when this message's calendar day (local time) differs
	// from the previous entry's, telling the renderer to insert a date
	// separator above it.
	NewDay bool
}

// Transcript annotates an ordered message slice with date separators.
func Transcript(msgs []api.ChatMessage) []Entry {
	entries := make([]Entry, len(msgs))
	for i, msg := range msgs {
		entries[i] = Entry{Message: msg}
		if i == 0 {
			entries[i].NewDay = true
			continue
		}
		prev := msgs[i-1].Timestamp.Local()
		cur := msg.Timestamp.Local()
		py, pm, pd := prev.Date()
		cy, cm, cd := cur.Date()
		entries[i].NewDay = py != cy || pm != cm || pd != cd
	}
	return entries
}
