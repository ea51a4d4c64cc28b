package recorder

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"meet-notes-recorder/internal/observability/metrics"
)

// loopbackHints mark devices that capture system output rather than a
// microphone.
var loopbackHints = []string{"stereo mix", "what u hear", "loopback", "monitor"}

// audioWorker reads PCM chunks from an input device into the session's
// audio sink. Failure to open any device is fatal to the session;
// stream errors after that terminate only this worker. Audio loss is
// tolerated, video loss is not.
type audioWorker struct {
	source    AudioSource
	sink      AudioSink
	recording *atomic.Bool
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func (w *audioWorker) run() {
	stream, name, err := w.openDevice()
	if err != nil {
		w.log.Error().Err(err).Msg("No audio device available, stopping session")
		w.metrics.RecordWorkerError("audio")
		w.recording.Store(false)
		return
	}
	defer func() {
		if err := stream.Close(); err != nil {
			w.log.Warn().Err(err).Msg("Closing audio stream failed")
		}
	}()

	w.log.Info().Str("device", name).Msg("Audio recording started")

	for w.recording.Load() {
		chunk, err := stream.Read()
		switch {
		case errors.Is(err, ErrBufferOverflow):
			w.log.Warn().Msg("Audio buffer overflow, adjusting")
			w.metrics.AudioOverflows.Inc()
			time.Sleep(100 * time.Millisecond)
			continue
		case err != nil:
			w.log.Error().Err(err).Msg("Audio stream error, worker exiting")
			w.metrics.RecordWorkerError("audio")
			return
		}
		if len(chunk) == 0 {
			continue
		}

		if err := w.sink.WritePCM(chunk); err != nil {
			w.log.Error().Err(err).Msg("Audio write error, worker exiting")
			w.metrics.RecordWorkerError("audio")
			return
		}
		w.metrics.RecordAudio(len(chunk))
	}
}

// openDevice prefers a system-loopback device, then falls back to the
// first device that opens successfully.
func (w *audioWorker) openDevice() (AudioStream, string, error) {
	devices, err := w.source.Devices()
	if err != nil {
		return nil, "", fmt.Errorf("listing audio devices: %w", err)
	}

	for _, dev := range devices {
		if !isLoopback(dev.Name()) {
			continue
		}
		if stream, err := dev.Open(); err == nil {
			return stream, dev.Name(), nil
		}
	}
	for _, dev := range devices {
		if stream, err := dev.Open(); err == nil {
			return stream, dev.Name(), nil
		}
	}
	return nil, "", ErrNoAudioDevice
}

func isLoopback(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range loopbackHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}
