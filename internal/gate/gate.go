// Package gate decides when a meeting should be joined or left. All
// decisions are pure functions over the clock and the meeting window; the
// orchestrator applies the verdicts.
package gate

import (
	"errors"
	"strings"
	"time"

	"meet-notes-recorder/internal/models"
)

// Validation errors. A meeting failing validation is marked failed by the
// caller and skipped until the hourly clear.
var (
	ErrMissingLink     = errors.New("meeting has no join link")
	ErrBadLink         = errors.New("join link does not match the host pattern")
	ErrMalformedWindow = errors.New("meeting end is not after start")
)

// Gate evaluates join/leave decisions for meetings.
type Gate struct {
	// JoinLead is how long before the scheduled start a join becomes due.
	JoinLead time.Duration
	// LinkPattern is the substring a valid join link must contain.
	LinkPattern string
}

// New returns a Gate with the given join lead and link pattern.
func New(joinLead time.Duration, linkPattern string) *Gate {
	return &Gate{JoinLead: joinLead, LinkPattern: linkPattern}
}

// Validate reports whether the meeting is joinable at all. It does not
// consult the clock.
func (g *Gate) Validate(m models.Meeting) error {
	if m.JoinLink == "" {
		return ErrMissingLink
	}
	if g.LinkPattern != "" && !strings.Contains(m.JoinLink, g.LinkPattern) {
		return ErrBadLink
	}
	if !m.End.After(m.Start) {
		return ErrMalformedWindow
	}
	return nil
}

// ShouldJoin reports whether the meeting should be joined now. True iff
// the meeting validates, is not in the failed set, now is within
// [start-JoinLead, end], and the meeting is not already the active
// session.
func (g *Gate) ShouldJoin(m models.Meeting, now time.Time, failed *FailedSet, activeID string) bool {
	if activeID == m.ID {
		return false
	}
	if failed != nil && failed.Contains(m.ID) {
		return false
	}
	if g.Validate(m) != nil {
		return false
	}
	joinFrom := m.Start.Add(-g.JoinLead)
	return !now.Before(joinFrom) && !now.After(m.End)
}

// ShouldLeave reports whether the active session should be left: the
// meeting is the active one and its scheduled end has passed.
func (g *Gate) ShouldLeave(activeID string, m models.Meeting, now time.Time) bool {
	return activeID != "" && activeID == m.ID && now.After(m.End)
}
