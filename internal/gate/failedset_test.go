package gate

import (
	"testing"
	"time"
)

func TestFailedSet_AddContains(t *testing.T) {
	s := NewFailedSet()

	if s.Contains("m1") {
		t.Error("empty set should not contain m1")
	}

	s.Add("m1")
	s.Add("m1") // idempotent
	s.Add("m2")

	if !s.Contains("m1") || !s.Contains("m2") {
		t.Error("expected m1 and m2 to be marked failed")
	}
	if s.Len() != 2 {
		t.Errorf("expected Len 2, got %d", s.Len())
	}
}

func TestFailedSet_MaybeClear_OnlyOnHourBoundary(t *testing.T) {
	s := NewFailedSet()
	s.Add("m1")

	notBoundary := time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
	if s.MaybeClear(notBoundary) {
		t.Error("expected no clear at minute 30")
	}
	if !s.Contains("m1") {
		t.Error("set should be untouched off the hour boundary")
	}

	boundary := time.Date(2025, 6, 2, 11, 0, 15, 0, time.UTC)
	if !s.MaybeClear(boundary) {
		t.Error("expected a clear at minute zero")
	}
	if s.Contains("m1") || s.Len() != 0 {
		t.Error("expected set to be empty after clear")
	}
}

func TestFailedSet_MaybeClear_OncePerHour(t *testing.T) {
	s := NewFailedSet()

	// Several ticks land inside the same minute-zero window.
	first := time.Date(2025, 6, 2, 11, 0, 1, 0, time.UTC)
	if !s.MaybeClear(first) {
		t.Fatal("expected first tick to clear")
	}

	s.Add("m1")
	for sec := 2; sec < 60; sec += 13 {
		tick := time.Date(2025, 6, 2, 11, 0, sec, 0, time.UTC)
		if s.MaybeClear(tick) {
			t.Errorf("tick at second %d cleared again within the same hour", sec)
		}
	}
	if !s.Contains("m1") {
		t.Error("m1 added after the clear must survive the rest of the hour")
	}

	// The next hour boundary clears again.
	nextHour := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	if !s.MaybeClear(nextHour) {
		t.Error("expected a clear at the next hour boundary")
	}
	if s.Contains("m1") {
		t.Error("expected set to be empty after the next clear")
	}
}
