// Package mock provides a scripted host adapter for testing without a
// browser. It simulates the host's behavior faithfully: captions are a
// repeating latest-value (not an append-only stream), and the
// end-of-meeting state is polled.
package mock

import (
	"context"
	"sync"
	"time"

	"meet-notes-recorder/internal/host"
	"meet-notes-recorder/internal/models"
)

// DefaultCaptions is the caption script used when none is set.
var DefaultCaptions = []models.CaptionEvent{
	{Speaker: "Alice", Text: "Good morning everyone"},
	{Speaker: "Alice", Text: "Good morning everyone, let's get started"},
	{Speaker: "Bob", Text: "Sounds good"},
	{Speaker: "Alice", Text: "First item is the quarterly review"},
	{Speaker: "Carol", Text: "I can take that one"},
}

// Adapter implements host.Adapter with scripted behavior.
type Adapter struct {
	mu sync.Mutex

	// JoinVerdict is returned by Join. Defaults to true.
	JoinVerdict bool
	// Captions is the caption script. Each value is served repeatedly
	// for AdvanceEvery polls before moving to the next, mimicking a
	// live-updating caption element.
	Captions []models.CaptionEvent
	// AdvanceEvery controls how many LatestCaption polls see the same
	// value. Defaults to 2.
	AdvanceEvery int

	joined   bool
	joinedAt time.Time
	endAfter time.Duration
	ended    bool

	polls int
	idx   int

	JoinCalls        int
	LeaveCalls       int
	StopCaptionCalls int
	CaptionsEnabled  bool
}

var _ host.Adapter = (*Adapter)(nil)

// New creates a mock adapter that joins successfully and serves the
// default caption script.
func New() *Adapter {
	return &Adapter{
		JoinVerdict:  true,
		Captions:     DefaultCaptions,
		AdvanceEvery: 2,
	}
}

// EndAfter makes HasEnded flip true once the given time has passed since
// Join.
func (a *Adapter) EndAfter(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.endAfter = d
}

// SetEnded makes HasEnded report true immediately.
func (a *Adapter) SetEnded() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ended = true
}

func (a *Adapter) Join(ctx context.Context, link string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.JoinCalls++
	if !a.JoinVerdict {
		return false, nil
	}
	a.joined = true
	a.joinedAt = time.Now()
	a.ended = false
	a.polls = 0
	a.idx = 0
	return true, nil
}

func (a *Adapter) Leave() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.LeaveCalls++
	a.joined = false
}

func (a *Adapter) HasEnded(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return true, nil
	}
	if a.endAfter > 0 && a.joined && time.Since(a.joinedAt) >= a.endAfter {
		a.ended = true
	}
	return a.ended, nil
}

func (a *Adapter) EnableCaptions(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.CaptionsEnabled = true
	return nil
}

func (a *Adapter) LatestCaption(ctx context.Context) (models.CaptionEvent, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.CaptionsEnabled || len(a.Captions) == 0 || a.idx >= len(a.Captions) {
		return models.CaptionEvent{}, false, nil
	}

	ev := a.Captions[a.idx]
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	a.polls++
	every := a.AdvanceEvery
	if every <= 0 {
		every = 1
	}
	if a.polls%every == 0 && a.idx < len(a.Captions)-1 {
		a.idx++
	}
	return ev, true, nil
}

func (a *Adapter) StopCaptions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.StopCaptionCalls++
	a.CaptionsEnabled = false
}
