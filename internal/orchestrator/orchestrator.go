// Package orchestrator runs the calendar polling loop and applies the
// gate's join and leave verdicts, driving at most one capture session at
// a time.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"meet-notes-recorder/internal/calendar"
	"meet-notes-recorder/internal/gate"
	"meet-notes-recorder/internal/host"
	"meet-notes-recorder/internal/models"
	"meet-notes-recorder/internal/observability/logging"
	"meet-notes-recorder/internal/observability/metrics"
)

// Capturer is the slice of the recorder the orchestrator needs.
type Capturer interface {
	Start(ctx context.Context, meeting models.Meeting) error
	Stop()
	Active() bool
}

// Options configures the polling loop.
type Options struct {
	PollInterval time.Duration
	Window       time.Duration
	JoinTimeout  time.Duration
}

// Orchestrator polls the calendar and starts or stops capture sessions.
type Orchestrator struct {
	source   calendar.Source
	host     host.Adapter
	gate     *gate.Gate
	capturer Capturer
	failed   *gate.FailedSet
	opts     Options
	metrics  *metrics.Metrics
	log      zerolog.Logger

	mu            sync.Mutex
	activeID      string
	activeMeeting models.Meeting
}

// New wires the orchestrator. The failed set starts empty; it holds ids
// that failed to join or were rejected, until the hourly reset.
func New(source calendar.Source, hostAdapter host.Adapter, g *gate.Gate, capturer Capturer, opts Options) *Orchestrator {
	return &Orchestrator{
		source:   source,
		host:     hostAdapter,
		gate:     g,
		capturer: capturer,
		failed:   gate.NewFailedSet(),
		opts:     opts,
		metrics:  metrics.DefaultMetrics,
		log:      logging.WithComponent("orchestrator"),
	}
}

// Run blocks, polling until ctx is cancelled. On cancellation the active
// session, if any, is stopped synchronously before Run returns. A failed
// tick never stops the loop.
func (o *Orchestrator) Run(ctx context.Context) {
	o.log.Info().
		Dur("pollInterval", o.opts.PollInterval).
		Dur("window", o.opts.Window).
		Msg("Orchestrator started")

	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()

	o.tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			o.log.Info().Msg("Shutting down, stopping active session")
			o.capturer.Stop()
			o.clearActive()
			return
		case <-ticker.C:
			o.tick(ctx, time.Now())
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context, now time.Time) {
	if o.failed.MaybeClear(now) {
		o.log.Info().Msg("Hourly reset of failed meetings")
		o.metrics.RecordFailedSetClear()
	}

	o.reconcileActive(now)

	listCtx, cancel := context.WithTimeout(ctx, o.opts.PollInterval)
	meetings, err := o.source.ListUpcoming(listCtx, o.opts.Window)
	cancel()
	o.metrics.RecordPoll(err, len(meetings))
	if err != nil {
		o.log.Warn().Err(err).Msg("Calendar poll failed, retrying next tick")
		return
	}

	activeID := o.active()
	for _, m := range meetings {
		if err := o.gate.Validate(m); err != nil {
			if !o.failed.Contains(m.ID) {
				o.log.Warn().Err(err).Str("meetingId", m.ID).Str("title", m.Title).Msg("Skipping invalid meeting")
				o.failed.Add(m.ID)
				o.metrics.RecordRejected(rejectionReason(err))
			}
			continue
		}
		if o.capturer.Active() {
			// One session at a time; remaining meetings wait for the
			// next tick after this one ends.
			break
		}
		if !o.gate.ShouldJoin(m, now, o.failed, activeID) {
			continue
		}
		o.join(ctx, m)
	}

	o.metrics.RecordFailedSet(o.failed.Len())
}

// reconcileActive leaves when the active meeting's scheduled end has
// passed. When the watchdog already stopped the session early, the id is
// kept until the window closes so the meeting is not rejoined.
func (o *Orchestrator) reconcileActive(now time.Time) {
	o.mu.Lock()
	activeID := o.activeID
	activeMeeting := o.activeMeeting
	o.mu.Unlock()
	if activeID == "" {
		return
	}

	if !o.gate.ShouldLeave(activeID, activeMeeting, now) {
		return
	}
	if o.capturer.Active() {
		o.log.Info().Str("meetingId", activeID).Time("scheduledEnd", activeMeeting.End).Msg("Scheduled end passed, leaving meeting")
		o.capturer.Stop()
	} else {
		o.log.Info().Str("meetingId", activeID).Msg("Meeting window over, releasing session slot")
	}
	o.clearActive()
}

// join attempts to enter the meeting and start capture. Any failure
// marks the meeting failed so it is not retried until the hourly reset.
func (o *Orchestrator) join(ctx context.Context, m models.Meeting) {
	o.log.Info().Str("meetingId", m.ID).Str("title", m.Title).Str("link", m.JoinLink).Msg("Joining meeting")

	joinCtx, cancel := context.WithTimeout(ctx, o.opts.JoinTimeout)
	ok, err := o.host.Join(joinCtx, m.JoinLink)
	cancel()
	o.metrics.RecordJoin(ok && err == nil)
	if err != nil || !ok {
		o.log.Error().Err(err).Str("meetingId", m.ID).Msg("Join failed, not retried until hourly reset")
		o.failed.Add(m.ID)
		return
	}

	if err := o.capturer.Start(ctx, m); err != nil {
		o.log.Error().Err(err).Str("meetingId", m.ID).Msg("Starting capture failed, leaving meeting")
		o.host.Leave()
		o.failed.Add(m.ID)
		return
	}

	o.mu.Lock()
	o.activeID = m.ID
	o.activeMeeting = m
	o.mu.Unlock()
}

func (o *Orchestrator) active() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeID
}

func (o *Orchestrator) clearActive() {
	o.mu.Lock()
	o.activeID = ""
	o.activeMeeting = models.Meeting{}
	o.mu.Unlock()
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, gate.ErrMissingLink):
		return "missing_link"
	case errors.Is(err, gate.ErrBadLink):
		return "bad_link"
	case errors.Is(err, gate.ErrMalformedWindow):
		return "malformed_window"
	default:
		return "invalid"
	}
}
