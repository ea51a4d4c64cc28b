package recorder

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"meet-notes-recorder/internal/config"
	"meet-notes-recorder/internal/host/mock"
	"meet-notes-recorder/internal/models"
	"meet-notes-recorder/internal/observability/metrics"
)

// --- fakes for the capture primitives ---

type fakeGrabber struct {
	fail atomic.Bool
}

func (g *fakeGrabber) Bounds() (int, int) { return 32, 24 }

func (g *fakeGrabber) Grab() (image.Image, error) {
	if g.fail.Load() {
		return nil, errors.New("display gone")
	}
	return image.NewRGBA(image.Rect(0, 0, 32, 24)), nil
}

type fakeVideoSink struct {
	mu              sync.Mutex
	frames          int
	closed          bool
	wroteAfterClose bool
}

func (s *fakeVideoSink) WriteFrame(_ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.wroteAfterClose = true
		return errors.New("sink closed")
	}
	s.frames++
	return nil
}

func (s *fakeVideoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeAudioSink struct {
	mu              sync.Mutex
	bytes           int
	closed          bool
	wroteAfterClose bool
}

func (s *fakeAudioSink) WritePCM(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.wroteAfterClose = true
		return errors.New("sink closed")
	}
	s.bytes += len(p)
	return nil
}

func (s *fakeAudioSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type fakeSinks struct {
	video *fakeVideoSink
	audio *fakeAudioSink
}

func (f *fakeSinks) NewVideoSink(string, int, int, int) (VideoSink, error) {
	return f.video, nil
}

func (f *fakeSinks) NewAudioSink(string, int, int) (AudioSink, error) {
	return f.audio, nil
}

type fakeAudioStream struct{}

func (fakeAudioStream) Read() ([]byte, error) {
	time.Sleep(2 * time.Millisecond)
	return []byte{1, 2, 3, 4}, nil
}

func (fakeAudioStream) Close() error { return nil }

type fakeAudioDevice struct{ name string }

func (d fakeAudioDevice) Name() string               { return d.name }
func (d fakeAudioDevice) Open() (AudioStream, error) { return fakeAudioStream{}, nil }

type fakeAudioSource struct{ empty bool }

func (s fakeAudioSource) Devices() ([]AudioDevice, error) {
	if s.empty {
		return nil, nil
	}
	return []AudioDevice{fakeAudioDevice{name: "Monitor of Built-in Audio"}}, nil
}

// --- test harness ---

type fixture struct {
	coordinator *Coordinator
	adapter     *mock.Adapter
	grabber     *fakeGrabber
	video       *fakeVideoSink
	audio       *fakeAudioSink
	cfg         config.RecordingConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.RecordingConfig{
		Dir:              t.TempDir(),
		JoinLead:         5 * time.Minute,
		MaxDuration:      time.Hour,
		WatchdogInterval: 5 * time.Millisecond,
		WorkerJoinWait:   time.Second,
		FrameInterval:    5 * time.Millisecond,
		CaptionInterval:  5 * time.Millisecond,
		AudioSampleRate:  44100,
		AudioChannels:    2,
	}
	f := &fixture{
		adapter: mock.New(),
		grabber: &fakeGrabber{},
		video:   &fakeVideoSink{},
		audio:   &fakeAudioSink{},
		cfg:     cfg,
	}
	f.coordinator = NewCoordinator(
		f.adapter,
		f.grabber,
		fakeAudioSource{},
		&fakeSinks{video: f.video, audio: f.audio},
		cfg,
		metrics.DefaultMetrics,
		nil,
	)
	return f
}

func testMeeting() models.Meeting {
	now := time.Now()
	return models.Meeting{
		ID:       "meeting-1",
		Title:    "Weekly sync",
		Start:    now,
		End:      now.Add(time.Hour),
		JoinLink: "https://meet.google.com/abc-defg-hij",
	}
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	// Captions are only served once the adapter considers them enabled,
	// which Start does through EnableCaptions.
	if _, err := f.adapter.Join(context.Background(), testMeeting().JoinLink); err != nil {
		t.Fatalf("mock join failed: %v", err)
	}
	if err := f.coordinator.Start(context.Background(), testMeeting()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func transcriptContents(t *testing.T, dir string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*", "transcription.txt"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one transcript file, got %v (err %v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	return string(data)
}

// --- tests ---

func TestCoordinator_StartAndExternalStop(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	if !f.coordinator.Active() {
		t.Fatal("expected coordinator to be active after Start")
	}
	if !f.adapter.CaptionsEnabled {
		t.Error("expected captions to be enabled on start")
	}

	// Let the workers produce some data.
	time.Sleep(100 * time.Millisecond)
	f.coordinator.Stop()

	if f.coordinator.Active() {
		t.Error("expected coordinator to be idle after Stop")
	}
	if f.adapter.LeaveCalls != 1 {
		t.Errorf("expected exactly one Leave call, got %d", f.adapter.LeaveCalls)
	}
	if f.adapter.StopCaptionCalls == 0 {
		t.Error("expected StopCaptions to be called")
	}

	f.video.mu.Lock()
	defer f.video.mu.Unlock()
	if f.video.frames == 0 {
		t.Error("expected at least one video frame")
	}
	if !f.video.closed {
		t.Error("expected video sink to be closed")
	}
	if f.video.wroteAfterClose {
		t.Error("a frame was written after the sink was closed")
	}

	f.audio.mu.Lock()
	defer f.audio.mu.Unlock()
	if f.audio.bytes == 0 {
		t.Error("expected audio bytes to be written")
	}
	if f.audio.wroteAfterClose {
		t.Error("audio was written after the sink was closed")
	}
}

func TestCoordinator_DoubleStartRejected(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	defer f.coordinator.Stop()

	err := f.coordinator.Start(context.Background(), testMeeting())
	if err != ErrSessionActive {
		t.Errorf("expected ErrSessionActive, got %v", err)
	}
}

func TestCoordinator_StopIdempotent(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.coordinator.Stop()
		}()
	}
	wg.Wait()
	f.coordinator.Stop()

	if f.adapter.LeaveCalls != 1 {
		t.Errorf("expected exactly one Leave despite concurrent Stops, got %d", f.adapter.LeaveCalls)
	}
}

func TestCoordinator_StopsWhenMeetingEnds(t *testing.T) {
	f := newFixture(t)

	var summary SessionSummary
	done := make(chan struct{})
	f.coordinator.OnStop = func(s SessionSummary) {
		summary = s
		close(done)
	}

	f.start(t)
	f.adapter.SetEnded()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not stop the session after the meeting ended")
	}
	if summary.StopReason != StopReasonEnded {
		t.Errorf("expected stop reason %q, got %q", StopReasonEnded, summary.StopReason)
	}
	waitFor(t, time.Second, func() bool { return !f.coordinator.Active() })
}

func TestCoordinator_StopsOnMaxDuration(t *testing.T) {
	f := newFixture(t)
	f.cfg.MaxDuration = 30 * time.Millisecond
	f.coordinator = NewCoordinator(
		f.adapter, f.grabber, fakeAudioSource{},
		&fakeSinks{video: f.video, audio: f.audio},
		f.cfg, metrics.DefaultMetrics, nil,
	)

	done := make(chan struct{})
	var summary SessionSummary
	f.coordinator.OnStop = func(s SessionSummary) {
		summary = s
		close(done)
	}

	f.start(t)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watchdog did not enforce the duration cap")
	}
	if summary.StopReason != StopReasonTimeout {
		t.Errorf("expected stop reason %q, got %q", StopReasonTimeout, summary.StopReason)
	}
}

func TestCoordinator_ScreenFailureIsFatal(t *testing.T) {
	f := newFixture(t)

	done := make(chan struct{})
	var summary SessionSummary
	f.coordinator.OnStop = func(s SessionSummary) {
		summary = s
		close(done)
	}

	f.start(t)
	f.grabber.fail.Store(true)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("screen failure did not stop the session")
	}
	if summary.StopReason != StopReasonFailure {
		t.Errorf("expected stop reason %q, got %q", StopReasonFailure, summary.StopReason)
	}
}

func TestCoordinator_AudioDeviceMissingIsFatal(t *testing.T) {
	f := newFixture(t)
	f.coordinator = NewCoordinator(
		f.adapter, f.grabber, fakeAudioSource{empty: true},
		&fakeSinks{video: f.video, audio: f.audio},
		f.cfg, metrics.DefaultMetrics, nil,
	)

	done := make(chan struct{})
	var summary SessionSummary
	f.coordinator.OnStop = func(s SessionSummary) {
		summary = s
		close(done)
	}

	f.start(t)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("missing audio device did not stop the session")
	}
	if summary.StopReason != StopReasonFailure {
		t.Errorf("expected stop reason %q, got %q", StopReasonFailure, summary.StopReason)
	}
}

func TestCoordinator_TranscriptDedup(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	// Long enough for the mock's whole caption script to play out.
	time.Sleep(300 * time.Millisecond)
	f.coordinator.Stop()

	transcript := transcriptContents(t, f.cfg.Dir)
	if !strings.HasPrefix(transcript, transcriptHeader) {
		t.Errorf("transcript missing header, got %q", transcript)
	}
	for _, ev := range mock.DefaultCaptions {
		if n := strings.Count(transcript, ev.Text+"\n"); n != 1 {
			t.Errorf("expected caption %q exactly once, found %d times", ev.Text, n)
		}
		if !strings.Contains(transcript, ev.Speaker+": "+ev.Text) {
			t.Errorf("expected speaker-prefixed line for %q", ev.Text)
		}
	}
}

func TestCoordinator_StatusSnapshot(t *testing.T) {
	f := newFixture(t)

	if _, ok := f.coordinator.Status(); ok {
		t.Error("expected no status while idle")
	}

	f.start(t)
	defer f.coordinator.Stop()

	status, ok := f.coordinator.Status()
	if !ok {
		t.Fatal("expected a status while active")
	}
	if status.MeetingID != "meeting-1" {
		t.Errorf("expected meeting-1, got %s", status.MeetingID)
	}
	if status.SessionID == "" {
		t.Error("expected a session id")
	}
	if !strings.HasPrefix(filepath.Base(status.Dir), "meeting-1_") {
		t.Errorf("unexpected session dir name %s", status.Dir)
	}
}
