package gate

import (
	"sync"
	"time"
)

// FailedSet tracks meeting ids that failed to join or were rejected as
// invalid, so they are not retried until the hourly clear. Process
// lifetime only; safe for concurrent use.
type FailedSet struct {
	mu        sync.Mutex
	ids       map[string]struct{}
	lastClear time.Time // truncated to the hour
}

// NewFailedSet returns an empty FailedSet.
func NewFailedSet() *FailedSet {
	return &FailedSet{ids: make(map[string]struct{})}
}

// Add records a failed meeting id. Re-adding is idempotent.
func (s *FailedSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

// Contains reports whether the id is currently marked failed.
func (s *FailedSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ids currently marked failed.
func (s *FailedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// MaybeClear empties the set when the wall clock sits on an hour boundary
// (minute == 0). At most one clear happens per hour no matter how many
// ticks land inside minute zero. Returns true if a clear happened.
func (s *FailedSet) MaybeClear(now time.Time) bool {
	if now.Minute() != 0 {
		return false
	}
	hour := now.Truncate(time.Hour)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastClear.Equal(hour) {
		return false
	}
	s.ids = make(map[string]struct{})
	s.lastClear = hour
	return true
}
