package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testSession(id string, startedAt time.Time) Session {
	return Session{
		SessionID:  id,
		MeetingID:  "meeting-" + id,
		Title:      "Weekly sync",
		Dir:        "recordings/meeting-" + id,
		StartedAt:  startedAt,
		EndedAt:    startedAt.Add(30 * time.Minute),
		StopReason: "meeting_ended",
	}
}

func TestStore_SaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	if err := s.Save(ctx, testSession("a", base)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, testSession("b", base.Add(time.Hour))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sessions, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	// Newest first.
	if sessions[0].SessionID != "b" || sessions[1].SessionID != "a" {
		t.Errorf("expected order [b a], got [%s %s]", sessions[0].SessionID, sessions[1].SessionID)
	}

	got := sessions[1]
	if got.MeetingID != "meeting-a" || got.StopReason != "meeting_ended" {
		t.Errorf("unexpected row contents: %+v", got)
	}
	if !got.StartedAt.Equal(base) {
		t.Errorf("expected start %v, got %v", base, got.StartedAt)
	}
}

func TestStore_ListRespectsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		sess := testSession(string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour))
		if err := s.Save(ctx, sess); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	sessions, err := s.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("expected 3 sessions, got %d", len(sessions))
	}
}

func TestStore_SaveOverwritesSameSession(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	sess := testSession("a", base)
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	sess.StopReason = "timeout"
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	sessions, err := s.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session after overwrite, got %d", len(sessions))
	}
	if sessions[0].StopReason != "timeout" {
		t.Errorf("expected overwritten stop reason, got %s", sessions[0].StopReason)
	}
}

func TestStore_ListEmpty(t *testing.T) {
	s := openTestStore(t)

	sessions, err := s.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(sessions))
	}
}
