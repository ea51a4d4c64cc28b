package recorder

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"meet-notes-recorder/internal/host"
	"meet-notes-recorder/internal/models"
	"meet-notes-recorder/internal/observability/metrics"
)

// captionWorker polls the host's latest caption value and appends
// deduplicated lines to the transcript. Transcript capture is
// best-effort: feed errors and write errors back off and retry on the
// next poll, they never end the session.
type captionWorker struct {
	adapter    host.Adapter
	transcript TranscriptSink
	interval   time.Duration
	recording  *atomic.Bool
	publish    func(models.CaptionEvent) // optional, may be nil
	metrics    *metrics.Metrics
	log        zerolog.Logger

	lastText string
}

func (w *captionWorker) run() {
	defer w.adapter.StopCaptions()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for w.recording.Load() {
		<-ticker.C
		if !w.recording.Load() {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.interval*4)
		ev, ok, err := w.adapter.LatestCaption(ctx)
		cancel()
		if err != nil {
			w.log.Warn().Err(err).Msg("Caption poll failed, retrying")
			w.metrics.RecordWorkerError("caption")
			continue
		}
		if !ok {
			continue
		}

		// Captions arrive as a live-updating value; the same
		// text repeats until the speaker says something new.
		if ev.Text == w.lastText {
			w.metrics.RecordCaption(false)
			continue
		}

		line := fmt.Sprintf("[%s] %s: %s\n", ev.Timestamp.Format(time.RFC3339), ev.Speaker, ev.Text)
		if err := w.transcript.Append(line); err != nil {
			// lastText is left unchanged so the line is retried.
			w.log.Error().Err(err).Msg("Transcript write failed, will retry")
			w.metrics.RecordWorkerError("caption")
			continue
		}
		w.lastText = ev.Text
		w.metrics.RecordCaption(true)
		if w.publish != nil {
			w.publish(ev)
		}
	}
}
