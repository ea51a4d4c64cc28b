// Package calendar defines the meeting source interface.
package calendar

import (
	"context"
	"time"

	"meet-notes-recorder/internal/models"
)

// Source yields meetings starting within a time window. Implementations
// must return an empty slice, not an error, when there are none, and must
// exclude events without concrete start/end times (all-day events).
type Source interface {
	ListUpcoming(ctx context.Context, window time.Duration) ([]models.Meeting, error)
}

// None is a Source with no meetings, used when discovery is disabled.
type None struct{}

func (None) ListUpcoming(context.Context, time.Duration) ([]models.Meeting, error) {
	return nil, nil
}
