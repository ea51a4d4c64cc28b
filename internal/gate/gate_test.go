package gate

import (
	"errors"
	"testing"
	"time"

	"meet-notes-recorder/internal/models"
)

func testMeeting() models.Meeting {
	return models.Meeting{
		ID:       "meeting-1",
		Title:    "Weekly sync",
		Start:    time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 6, 2, 11, 0, 0, 0, time.UTC),
		JoinLink: "https://meet.google.com/abc-defg-hij",
	}
}

func testGate() *Gate {
	return New(5*time.Minute, "meet.google.com")
}

func TestValidate(t *testing.T) {
	g := testGate()

	tests := []struct {
		name    string
		mutate  func(*models.Meeting)
		wantErr error
	}{
		{"valid", func(*models.Meeting) {}, nil},
		{"missing link", func(m *models.Meeting) { m.JoinLink = "" }, ErrMissingLink},
		{"wrong host", func(m *models.Meeting) { m.JoinLink = "https://zoom.us/j/123" }, ErrBadLink},
		{"end before start", func(m *models.Meeting) { m.End = m.Start.Add(-time.Hour) }, ErrMalformedWindow},
		{"zero duration", func(m *models.Meeting) { m.End = m.Start }, ErrMalformedWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMeeting()
			tt.mutate(&m)
			if err := g.Validate(m); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestShouldJoin_WindowBoundaries(t *testing.T) {
	g := testGate()
	m := testMeeting()
	failed := NewFailedSet()

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one second before lead", m.Start.Add(-5*time.Minute - time.Second), false},
		{"exactly at lead", m.Start.Add(-5 * time.Minute), true},
		{"at scheduled start", m.Start, true},
		{"mid meeting", m.Start.Add(30 * time.Minute), true},
		{"exactly at end", m.End, true},
		{"one second after end", m.End.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ShouldJoin(m, tt.now, failed, ""); got != tt.want {
				t.Errorf("ShouldJoin(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestShouldJoin_SkipsActiveMeeting(t *testing.T) {
	g := testGate()
	m := testMeeting()
	now := m.Start

	if g.ShouldJoin(m, now, NewFailedSet(), m.ID) {
		t.Error("expected ShouldJoin to be false for the already-active meeting")
	}
	if !g.ShouldJoin(m, now, NewFailedSet(), "other-meeting") {
		t.Error("expected ShouldJoin to be true when a different meeting is active id")
	}
}

func TestShouldJoin_SkipsFailedMeeting(t *testing.T) {
	g := testGate()
	m := testMeeting()
	failed := NewFailedSet()
	failed.Add(m.ID)

	if g.ShouldJoin(m, m.Start, failed, "") {
		t.Error("expected ShouldJoin to be false for a failed meeting")
	}
}

func TestShouldJoin_SkipsInvalidMeeting(t *testing.T) {
	g := testGate()
	m := testMeeting()
	m.JoinLink = ""

	if g.ShouldJoin(m, m.Start, NewFailedSet(), "") {
		t.Error("expected ShouldJoin to be false for a meeting without a link")
	}
}

func TestShouldLeave(t *testing.T) {
	g := testGate()
	m := testMeeting()

	tests := []struct {
		name     string
		activeID string
		now      time.Time
		want     bool
	}{
		{"no active session", "", m.End.Add(time.Minute), false},
		{"different meeting active", "other", m.End.Add(time.Minute), false},
		{"active but not over", m.ID, m.End.Add(-time.Minute), false},
		{"active exactly at end", m.ID, m.End, false},
		{"active and past end", m.ID, m.End.Add(time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.ShouldLeave(tt.activeID, m, tt.now); got != tt.want {
				t.Errorf("ShouldLeave() = %v, want %v", got, tt.want)
			}
		})
	}
}
