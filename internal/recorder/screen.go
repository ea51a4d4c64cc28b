package recorder

import (
	"bytes"
	"image/jpeg"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"meet-notes-recorder/internal/observability/metrics"
)

// screenWorker samples the screen at a fixed rate and writes JPEG frames
// into the session's video sink. A recording without video is not
// useful, so any capture or encode error here is fatal to the whole
// session: the worker clears the shared recording flag and exits.
type screenWorker struct {
	grab      FrameGrabber
	sink      VideoSink
	interval  time.Duration
	recording *atomic.Bool
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func (w *screenWorker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	quality := &jpeg.Options{Quality: 80}

	for w.recording.Load() {
		<-ticker.C
		if !w.recording.Load() {
			return
		}

		img, err := w.grab.Grab()
		if err != nil {
			w.fatal("screen capture failed", err)
			return
		}
		if img == nil || img.Bounds().Empty() {
			w.metrics.RecordFrame(true)
			continue
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, quality); err != nil {
			w.fatal("frame encode failed", err)
			return
		}
		if err := w.sink.WriteFrame(buf.Bytes()); err != nil {
			w.fatal("frame write failed", err)
			return
		}
		w.metrics.RecordFrame(false)
	}
}

// fatal logs the error and stops the whole session.
func (w *screenWorker) fatal(msg string, err error) {
	w.log.Error().Err(err).Msg(msg + ", stopping session")
	w.metrics.RecordWorkerError("screen")
	w.recording.Store(false)
}
