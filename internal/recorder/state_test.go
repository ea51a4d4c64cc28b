package recorder

import (
	"testing"
)

func TestLifecycle_InitialState(t *testing.T) {
	lc := NewLifecycle()

	if lc.State() != StateIdle {
		t.Errorf("expected StateIdle, got %v", lc.State())
	}
}

func TestLifecycle_Begin_FromIdle(t *testing.T) {
	lc := NewLifecycle()

	if err := lc.Begin(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lc.State() != StateStarting {
		t.Errorf("expected StateStarting, got %v", lc.State())
	}
}

func TestLifecycle_Begin_RejectsDoubleStart(t *testing.T) {
	lc := NewLifecycle()

	if err := lc.Begin(); err != nil {
		t.Fatalf("first Begin failed: %v", err)
	}
	if err := lc.Begin(); err != ErrSessionActive {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}

	lc.Started()
	if err := lc.Begin(); err != ErrSessionActive {
		t.Errorf("expected ErrSessionActive while recording, got %v", err)
	}
}

func TestLifecycle_FullCycle(t *testing.T) {
	lc := NewLifecycle()

	if err := lc.Begin(); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	lc.Started()
	if lc.State() != StateRecording {
		t.Errorf("expected StateRecording, got %v", lc.State())
	}

	if !lc.BeginStop() {
		t.Error("expected BeginStop to return true from RECORDING")
	}
	if lc.State() != StateStopping {
		t.Errorf("expected StateStopping, got %v", lc.State())
	}

	lc.Finished()
	if lc.State() != StateIdle {
		t.Errorf("expected StateIdle after Finished, got %v", lc.State())
	}

	// A new session can start now.
	if err := lc.Begin(); err != nil {
		t.Errorf("Begin after full cycle failed: %v", err)
	}
}

func TestLifecycle_BeginStop_NothingToStop(t *testing.T) {
	lc := NewLifecycle()

	if lc.BeginStop() {
		t.Error("expected BeginStop to return false from IDLE")
	}

	lc.Begin()
	lc.Started()
	lc.BeginStop()
	if lc.BeginStop() {
		t.Error("expected second BeginStop to return false")
	}
}

func TestLifecycle_BeginStop_FromStarting(t *testing.T) {
	// A failed start stops directly from STARTING.
	lc := NewLifecycle()
	lc.Begin()

	if !lc.BeginStop() {
		t.Error("expected BeginStop to return true from STARTING")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
	}{
		{StateIdle, "IDLE"},
		{StateStarting, "STARTING"},
		{StateRecording, "RECORDING"},
		{StateStopping, "STOPPING"},
		{State(99), "UNKNOWN(99)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.expected {
			t.Errorf("State(%d).String() = %v, want %v", tt.state, got, tt.expected)
		}
	}
}
