// Package recorder owns the capture pipeline for the active meeting
// session: the coordinator, the three capture workers, and the ordered
// shutdown sequence.
package recorder

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of the capture pipeline.
type State int

const (
	// StateIdle - no session; Start is allowed.
	StateIdle State = iota
	// StateStarting - sinks are being opened and workers launched.
	StateStarting
	// StateRecording - workers are producing into the session's sinks.
	StateRecording
	// StateStopping - the shutdown sequence is running.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRecording:
		return "RECORDING"
	case StateStopping:
		return "STOPPING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid lifecycle transitions.
var (
	ErrSessionActive = errors.New("a capture session is already active")
	ErrNoSession     = errors.New("no capture session is active")
)

// Lifecycle is the state machine guarding the coordinator against
// double-start and double-stop. Thread-safe.
//
// Transitions:
//
//	IDLE → STARTING → RECORDING → STOPPING → IDLE
//	          └────────────────────┘ (failed start stops directly)
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// NewLifecycle creates a lifecycle in IDLE state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateIdle}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Begin transitions IDLE → STARTING. Any other state is a double-start.
func (l *Lifecycle) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateIdle {
		return ErrSessionActive
	}
	l.state = StateStarting
	return nil
}

// Started transitions STARTING → RECORDING.
func (l *Lifecycle) Started() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateStarting {
		l.state = StateRecording
	}
}

// BeginStop transitions STARTING or RECORDING → STOPPING. Returns false
// when there is nothing to stop (IDLE) or a stop is already in flight.
func (l *Lifecycle) BeginStop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateStarting && l.state != StateRecording {
		return false
	}
	l.state = StateStopping
	return true
}

// Finished transitions back to IDLE once the shutdown sequence has
// completed.
func (l *Lifecycle) Finished() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateIdle
}
