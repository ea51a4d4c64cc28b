// Package host defines the interface to the meeting host application:
// the collaborator that can join and leave a meeting and expose its live
// content for caption scraping.
package host

import (
	"context"

	"meet-notes-recorder/internal/models"
)

// Adapter drives a single meeting at a time. Implementations are
// restartable per session, not across sessions.
type Adapter interface {
	// Join navigates to the link and attempts to enter the meeting.
	// Returns true only once the in-meeting state is confirmed; false on
	// any failure, with no partial side effects expected by the caller.
	Join(ctx context.Context, link string) (bool, error)

	// Leave exits the meeting. Best-effort; must not fail loudly on an
	// already-terminated session.
	Leave()

	// HasEnded reports whether the host shows the meeting as over.
	// Polled, not pushed.
	HasEnded(ctx context.Context) (bool, error)

	// EnableCaptions turns on live captions and installs the caption
	// observer for this session.
	EnableCaptions(ctx context.Context) error

	// LatestCaption returns the most recent caption value and whether
	// one was available. Captions are a mutating latest-value, so the
	// same event may be returned repeatedly.
	LatestCaption(ctx context.Context) (models.CaptionEvent, bool, error)

	// StopCaptions disconnects the caption observer so no further
	// caption events are produced.
	StopCaptions()
}
