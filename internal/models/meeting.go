// Package models defines the data structures shared across the recorder.
package models

import "time"

// Meeting is a single calendar entry with a joinable link.
// Instances are immutable once fetched; the source supplies fresh copies
// on every poll.
type Meeting struct {
	ID       string
	Title    string
	Start    time.Time
	End      time.Time
	JoinLink string
}

// Window returns the meeting's scheduled duration.
func (m Meeting) Window() time.Duration {
	return m.End.Sub(m.Start)
}

// CaptionEvent is one live caption observed in the meeting UI.
// Captions arrive as a mutating "latest value", not an append-only
// stream, so consumers must deduplicate against the previous text.
type CaptionEvent struct {
	Timestamp time.Time
	Speaker   string
	Text      string
}
