package notify

import (
	"log/slog"
	"time"
)

// Field is one labelled value attached to an Event.
type Field struct {
	Name  string
	Value string
}

// Event is one operator notification. Type is matched against the configured
// event filter; Level lets senders pick a colour or prefix.
type Event struct {
	Type    string
	Level   slog.Level
	Title   string
	Message string
	Fields  []Field
	Time    time.Time
}

// truncateRunes cuts s to at most n runes, marking the cut with an ellipsis.
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
