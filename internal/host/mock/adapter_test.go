package mock

import (
	"context"
	"testing"
	"time"

	"meet-notes-recorder/internal/models"
)

func TestAdapter_JoinLeave(t *testing.T) {
	a := New()
	ctx := context.Background()

	ok, err := a.Join(ctx, "https://meet.google.com/abc")
	if err != nil || !ok {
		t.Fatalf("expected successful join, got ok=%v err=%v", ok, err)
	}
	if a.JoinCalls != 1 {
		t.Errorf("expected 1 join call, got %d", a.JoinCalls)
	}

	a.Leave()
	if a.LeaveCalls != 1 {
		t.Errorf("expected 1 leave call, got %d", a.LeaveCalls)
	}
}

func TestAdapter_JoinVerdictFalse(t *testing.T) {
	a := New()
	a.JoinVerdict = false

	ok, err := a.Join(context.Background(), "https://meet.google.com/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected join to fail")
	}
}

func TestAdapter_CaptionsRequireEnable(t *testing.T) {
	a := New()
	ctx := context.Background()
	a.Join(ctx, "link")

	if _, ok, _ := a.LatestCaption(ctx); ok {
		t.Error("expected no captions before EnableCaptions")
	}

	a.EnableCaptions(ctx)
	if _, ok, _ := a.LatestCaption(ctx); !ok {
		t.Error("expected a caption after EnableCaptions")
	}

	a.StopCaptions()
	if _, ok, _ := a.LatestCaption(ctx); ok {
		t.Error("expected no captions after StopCaptions")
	}
}

func TestAdapter_CaptionsAreLatestValue(t *testing.T) {
	a := New()
	a.Captions = []models.CaptionEvent{
		{Speaker: "Alice", Text: "one"},
		{Speaker: "Bob", Text: "two"},
	}
	a.AdvanceEvery = 3
	ctx := context.Background()
	a.Join(ctx, "link")
	a.EnableCaptions(ctx)

	// The same value repeats before the script advances.
	var texts []string
	for i := 0; i < 6; i++ {
		ev, ok, err := a.LatestCaption(ctx)
		if err != nil || !ok {
			t.Fatalf("poll %d: ok=%v err=%v", i, ok, err)
		}
		texts = append(texts, ev.Text)
	}

	want := []string{"one", "one", "one", "two", "two", "two"}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("poll %d: expected %q, got %q (all %v)", i, want[i], texts[i], texts)
		}
	}

	// The final value keeps repeating.
	ev, ok, _ := a.LatestCaption(ctx)
	if !ok || ev.Text != "two" {
		t.Errorf("expected the last value to repeat, got ok=%v text=%q", ok, ev.Text)
	}
}

func TestAdapter_HasEnded(t *testing.T) {
	a := New()
	ctx := context.Background()
	a.Join(ctx, "link")

	if ended, _ := a.HasEnded(ctx); ended {
		t.Error("expected meeting to be live after join")
	}

	a.SetEnded()
	if ended, _ := a.HasEnded(ctx); !ended {
		t.Error("expected meeting to be over after SetEnded")
	}
}

func TestAdapter_EndAfter(t *testing.T) {
	a := New()
	a.EndAfter(10 * time.Millisecond)
	ctx := context.Background()
	a.Join(ctx, "link")

	if ended, _ := a.HasEnded(ctx); ended {
		t.Fatal("meeting ended too early")
	}
	time.Sleep(20 * time.Millisecond)
	if ended, _ := a.HasEnded(ctx); !ended {
		t.Error("expected meeting to end after the deadline")
	}
}
