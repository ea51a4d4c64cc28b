package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"meet-notes-recorder/internal/config"
	"meet-notes-recorder/internal/events"
	"meet-notes-recorder/internal/host"
	"meet-notes-recorder/internal/models"
	"meet-notes-recorder/internal/observability/logging"
	"meet-notes-recorder/internal/observability/metrics"
)

// Stop reasons, first condition to fire wins.
const (
	StopReasonEnded    = "meeting_ended"
	StopReasonTimeout  = "timeout"
	StopReasonExternal = "external"
	StopReasonFailure  = "capture_failure"
)

// SessionSummary describes a completed capture session.
type SessionSummary struct {
	SessionID  string
	MeetingID  string
	Title      string
	Dir        string
	StartedAt  time.Time
	EndedAt    time.Time
	StopReason string
}

// SessionStatus is a snapshot of the active session, if any.
type SessionStatus struct {
	SessionID string    `json:"sessionId"`
	MeetingID string    `json:"meetingId"`
	Title     string    `json:"title"`
	Dir       string    `json:"dir"`
	StartedAt time.Time `json:"startedAt"`
	State     string    `json:"state"`
}

// captureContext bundles everything owned by one session: output
// directory, the shared recording flag, the three sinks, and the worker
// handles. Never shared across sessions; discarded entirely on stop.
type captureContext struct {
	sessionID string
	meeting   models.Meeting
	dir       string
	startedAt time.Time

	recording  atomic.Bool
	video      VideoSink
	audio      AudioSink
	transcript TranscriptSink

	workers  []*workerHandle
	stopOnce sync.Once
	stopped  chan struct{}
}

type workerHandle struct {
	name string
	done chan struct{}
}

// Coordinator owns the lifecycle of the concurrent capture workers for
// exactly one session at a time.
type Coordinator struct {
	host      host.Adapter
	screen    FrameGrabber
	audioSrc  AudioSource
	sinks     MediaSinks
	cfg       config.RecordingConfig
	metrics   *metrics.Metrics
	publisher *events.Publisher
	lifecycle *Lifecycle

	// OnStop, if set, is called once after each completed shutdown.
	OnStop func(SessionSummary)

	mu   sync.Mutex
	sess *captureContext
}

// NewCoordinator wires the capture pipeline.
func NewCoordinator(
	hostAdapter host.Adapter,
	screen FrameGrabber,
	audioSrc AudioSource,
	sinks MediaSinks,
	cfg config.RecordingConfig,
	m *metrics.Metrics,
	publisher *events.Publisher,
) *Coordinator {
	return &Coordinator{
		host:      hostAdapter,
		screen:    screen,
		audioSrc:  audioSrc,
		sinks:     sinks,
		cfg:       cfg,
		metrics:   m,
		publisher: publisher,
		lifecycle: NewLifecycle(),
	}
}

// Active reports whether a session is currently being captured.
func (c *Coordinator) Active() bool {
	return c.lifecycle.State() != StateIdle
}

// Status returns a snapshot of the active session.
func (c *Coordinator) Status() (SessionStatus, bool) {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return SessionStatus{}, false
	}
	return SessionStatus{
		SessionID: sess.sessionID,
		MeetingID: sess.meeting.ID,
		Title:     sess.meeting.Title,
		Dir:       sess.dir,
		StartedAt: sess.startedAt,
		State:     c.lifecycle.State().String(),
	}, true
}

// Start creates the capture context and launches the three workers and
// the watchdog. It returns once everything is launched; the watchdog
// goroutine is what blocks until a stop condition fires.
func (c *Coordinator) Start(ctx context.Context, meeting models.Meeting) error {
	if err := c.lifecycle.Begin(); err != nil {
		return err
	}

	start := time.Now()
	sess := &captureContext{
		sessionID: uuid.NewString(),
		meeting:   meeting,
		startedAt: start,
		stopped:   make(chan struct{}),
	}
	sess.dir = filepath.Join(c.cfg.Dir, fmt.Sprintf("%s_%s", meeting.ID, start.Format("20060102_150405")))

	if err := c.openSinks(sess); err != nil {
		c.lifecycle.Finished()
		return err
	}

	// Captions are best-effort: a meeting without them still gets video
	// and audio.
	if err := c.host.EnableCaptions(ctx); err != nil {
		captionLog := logging.WithComponent("recorder")
		captionLog.Warn().Err(err).Msg("Enabling captions failed, transcript may stay empty")
	}

	log := logging.WithSession("recorder", sess.sessionID, meeting.ID)

	sess.recording.Store(true)
	c.launch(sess, "screen", (&screenWorker{
		grab:      c.screen,
		sink:      sess.video,
		interval:  c.cfg.FrameInterval,
		recording: &sess.recording,
		metrics:   c.metrics,
		log:       log,
	}).run)
	c.launch(sess, "audio", (&audioWorker{
		source:    c.audioSrc,
		sink:      sess.audio,
		recording: &sess.recording,
		metrics:   c.metrics,
		log:       log,
	}).run)
	c.launch(sess, "caption", (&captionWorker{
		adapter:    c.host,
		transcript: sess.transcript,
		interval:   c.cfg.CaptionInterval,
		recording:  &sess.recording,
		publish:    c.captionPublisher(sess),
		metrics:    c.metrics,
		log:        log,
	}).run)

	go c.watch(sess)

	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()
	c.lifecycle.Started()

	c.metrics.RecordSessionStart()
	c.publishStarted(sess)
	log.Info().Str("dir", sess.dir).Str("title", meeting.Title).Msg("Capture started")
	return nil
}

// Stop requests shutdown of the active session and blocks until the
// full sequence has completed. Safe to call multiple times and
// concurrently with the watchdog firing; exactly one shutdown runs.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return
	}
	c.shutdown(sess, StopReasonExternal)
	<-sess.stopped
}

func (c *Coordinator) openSinks(sess *captureContext) error {
	if err := os.MkdirAll(sess.dir, 0o755); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	width, height := c.screen.Bounds()
	fps := int(time.Second / c.cfg.FrameInterval)
	if fps < 1 {
		fps = 1
	}
	video, err := c.sinks.NewVideoSink(filepath.Join(sess.dir, "screen_recording.avi"), width, height, fps)
	if err != nil {
		return fmt.Errorf("opening video sink: %w", err)
	}
	audio, err := c.sinks.NewAudioSink(filepath.Join(sess.dir, "audio.wav"), c.cfg.AudioSampleRate, c.cfg.AudioChannels)
	if err != nil {
		_ = video.Close()
		return fmt.Errorf("opening audio sink: %w", err)
	}
	transcript, err := newTranscriptFile(filepath.Join(sess.dir, "transcription.txt"))
	if err != nil {
		_ = video.Close()
		_ = audio.Close()
		return err
	}

	sess.video = video
	sess.audio = audio
	sess.transcript = transcript
	return nil
}

func (c *Coordinator) launch(sess *captureContext, name string, run func()) {
	handle := &workerHandle{name: name, done: make(chan struct{})}
	sess.workers = append(sess.workers, handle)
	go func() {
		defer close(handle.done)
		run()
	}()
}

// watch polls for the three stop conditions: meeting ended, hard
// timeout, or the recording flag cleared by a fatal worker error. It
// runs on its own goroutine so capture never blocks the orchestrator's
// polling cadence.
func (c *Coordinator) watch(sess *captureContext) {
	ticker := time.NewTicker(c.cfg.WatchdogInterval)
	defer ticker.Stop()

	deadline := sess.startedAt.Add(c.cfg.MaxDuration)
	log := logging.WithSession("watchdog", sess.sessionID, sess.meeting.ID)

	for {
		select {
		case <-sess.stopped:
			return
		case <-ticker.C:
		}

		if !sess.recording.Load() {
			log.Info().Msg("Recording flag cleared, triggering shutdown")
			c.shutdown(sess, StopReasonFailure)
			return
		}
		if time.Now().After(deadline) {
			log.Info().Dur("maxDuration", c.cfg.MaxDuration).Msg("Maximum recording duration reached")
			c.shutdown(sess, StopReasonTimeout)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.WatchdogInterval*5)
		ended, err := c.host.HasEnded(ctx)
		cancel()
		if err != nil {
			log.Debug().Err(err).Msg("End-of-meeting probe failed")
			continue
		}
		if ended {
			log.Info().Msg("Meeting has ended")
			c.shutdown(sess, StopReasonEnded)
			return
		}
	}
}

// shutdown runs the ordered stop sequence exactly once per session.
// Every step is guarded: a failing step is logged and the remaining
// steps still run.
func (c *Coordinator) shutdown(sess *captureContext, reason string) {
	sess.stopOnce.Do(func() {
		c.lifecycle.BeginStop()
		log := logging.WithSession("recorder", sess.sessionID, sess.meeting.ID)
		log.Info().Str("reason", reason).Msg("Stopping capture")

		// 1. Clear the flag before anything else: no worker may produce
		// new data from here on.
		sess.recording.Store(false)

		// 2. Disconnect the caption feed so no further events arrive.
		c.host.StopCaptions()

		// 3. Bounded wait for each worker. A straggler is logged, not
		// force-killed; its sink stays open until it exits but we
		// proceed regardless (known narrow race, accepted).
		for _, wk := range sess.workers {
			select {
			case <-wk.done:
			case <-time.After(c.cfg.WorkerJoinWait):
				log.Warn().Str("worker", wk.name).Msg("Worker did not stop gracefully")
				c.metrics.RecordWorkerLagged(wk.name)
			}
		}

		// 4. Close sinks only after the workers have been waited on.
		if err := sess.video.Close(); err != nil {
			log.Error().Err(err).Msg("Releasing video sink failed")
		}
		if err := sess.audio.Close(); err != nil {
			log.Error().Err(err).Msg("Closing audio sink failed")
		}
		if err := sess.transcript.Close(); err != nil {
			log.Error().Err(err).Msg("Closing transcript failed")
		}

		// 5. Leave the host last; draining workers may still have
		// depended on it.
		c.host.Leave()

		// 6. Drop all references so a later Start cannot reuse stale
		// handles.
		c.mu.Lock()
		c.sess = nil
		c.mu.Unlock()
		c.lifecycle.Finished()

		endedAt := time.Now()
		duration := endedAt.Sub(sess.startedAt)
		c.metrics.RecordSessionStop(reason, duration.Seconds())
		c.publishStopped(sess, reason, endedAt)
		if c.OnStop != nil {
			c.OnStop(SessionSummary{
				SessionID:  sess.sessionID,
				MeetingID:  sess.meeting.ID,
				Title:      sess.meeting.Title,
				Dir:        sess.dir,
				StartedAt:  sess.startedAt,
				EndedAt:    endedAt,
				StopReason: reason,
			})
		}
		log.Info().Dur("duration", duration).Str("reason", reason).Msg("Capture stopped")
		close(sess.stopped)
	})
}

func (c *Coordinator) captionPublisher(sess *captureContext) func(models.CaptionEvent) {
	if c.publisher == nil {
		return nil
	}
	return func(ev models.CaptionEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.publisher.PublishCaption(ctx, sess.meeting.ID, models.CaptionLine{
			EventType: "session.caption",
			SessionID: sess.sessionID,
			MeetingID: sess.meeting.ID,
			Speaker:   ev.Speaker,
			Text:      ev.Text,
			Timestamp: ev.Timestamp.UnixMilli(),
		})
	}
}

func (c *Coordinator) publishStarted(sess *captureContext) {
	if c.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.publisher.PublishLifecycle(ctx, sess.meeting.ID, models.SessionStarted{
		EventType: "session.started",
		SessionID: sess.sessionID,
		MeetingID: sess.meeting.ID,
		Title:     sess.meeting.Title,
		OutputDir: sess.dir,
		Timestamp: sess.startedAt.UnixMilli(),
	})
}

func (c *Coordinator) publishStopped(sess *captureContext, reason string, endedAt time.Time) {
	if c.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.publisher.PublishLifecycle(ctx, sess.meeting.ID, models.SessionStopped{
		EventType:  "session.stopped",
		SessionID:  sess.sessionID,
		MeetingID:  sess.meeting.ID,
		StopReason: reason,
		DurationMs: endedAt.Sub(sess.startedAt).Milliseconds(),
		Timestamp:  endedAt.UnixMilli(),
	})
}
