// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meet_notes"

// Metrics holds all Prometheus metrics for the recorder.
type Metrics struct {
	// Discovery metrics
	PollsTotal        prometheus.Counter
	PollErrors        prometheus.Counter
	MeetingsSeen      prometheus.Counter
	MeetingsRejected  *prometheus.CounterVec
	FailedSetSize     prometheus.Gauge
	FailedSetClears   prometheus.Counter

	// Session metrics
	JoinAttempts    prometheus.Counter
	JoinFailures    prometheus.Counter
	SessionsStarted prometheus.Counter
	SessionsStopped *prometheus.CounterVec
	SessionActive   prometheus.Gauge
	SessionDuration prometheus.Histogram

	// Capture metrics
	FramesCaptured  prometheus.Counter
	FramesSkipped   prometheus.Counter
	AudioBytes      prometheus.Counter
	AudioOverflows  prometheus.Counter
	CaptionsWritten prometheus.Counter
	CaptionsDeduped prometheus.Counter
	WorkerErrors    *prometheus.CounterVec
	WorkerLagged    *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		PollsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_polls_total",
			Help:      "Total number of calendar polls",
		}),
		PollErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calendar_poll_errors_total",
			Help:      "Total number of failed calendar polls",
		}),
		MeetingsSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_seen_total",
			Help:      "Total number of meetings returned by the source",
		}),
		MeetingsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meetings_rejected_total",
			Help:      "Total number of meetings rejected before join",
		}, []string{"reason"}),
		FailedSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed_meetings",
			Help:      "Number of meeting ids currently in the failed set",
		}),
		FailedSetClears: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failed_set_clears_total",
			Help:      "Total number of hourly failed-set clears",
		}),

		JoinAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_attempts_total",
			Help:      "Total number of meeting join attempts",
		}),
		JoinFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_failures_total",
			Help:      "Total number of failed join attempts",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of capture sessions started",
		}),
		SessionsStopped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_stopped_total",
			Help:      "Total number of capture sessions stopped",
		}, []string{"reason"}),
		SessionActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "Whether a capture session is currently active (0 or 1)",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of capture sessions in seconds",
			Buckets:   []float64{60, 300, 600, 1800, 3600, 7200, 10800},
		}),

		FramesCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_captured_total",
			Help:      "Total number of video frames written",
		}),
		FramesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_skipped_total",
			Help:      "Total number of empty frames skipped",
		}),
		AudioBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_total",
			Help:      "Total PCM bytes written to the audio sink",
		}),
		AudioOverflows: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_overflows_total",
			Help:      "Total transient audio buffer overflows",
		}),
		CaptionsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captions_written_total",
			Help:      "Total caption lines written to the transcript",
		}),
		CaptionsDeduped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captions_deduped_total",
			Help:      "Total caption events dropped as duplicates",
		}),
		WorkerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_errors_total",
			Help:      "Total capture worker errors",
		}, []string{"worker"}),
		WorkerLagged: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_stop_lagged_total",
			Help:      "Total workers that missed the bounded stop wait",
		}, []string{"worker"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordPoll records a calendar poll and its outcome.
func (m *Metrics) RecordPoll(err error, meetings int) {
	m.PollsTotal.Inc()
	if err != nil {
		m.PollErrors.Inc()
		return
	}
	m.MeetingsSeen.Add(float64(meetings))
}

// RecordRejected records a meeting rejected before any join attempt.
func (m *Metrics) RecordRejected(reason string) {
	m.MeetingsRejected.WithLabelValues(reason).Inc()
}

// RecordJoin records a join attempt and its outcome.
func (m *Metrics) RecordJoin(ok bool) {
	m.JoinAttempts.Inc()
	if !ok {
		m.JoinFailures.Inc()
	}
}

// RecordSessionStart records a capture session starting.
func (m *Metrics) RecordSessionStart() {
	m.SessionsStarted.Inc()
	m.SessionActive.Set(1)
}

// RecordSessionStop records a capture session ending.
func (m *Metrics) RecordSessionStop(reason string, durationSeconds float64) {
	m.SessionsStopped.WithLabelValues(reason).Inc()
	m.SessionActive.Set(0)
	m.SessionDuration.Observe(durationSeconds)
}

// RecordFrame records one captured or skipped video frame.
func (m *Metrics) RecordFrame(skipped bool) {
	if skipped {
		m.FramesSkipped.Inc()
		return
	}
	m.FramesCaptured.Inc()
}

// RecordAudio records PCM bytes written to the audio sink.
func (m *Metrics) RecordAudio(bytes int) {
	m.AudioBytes.Add(float64(bytes))
}

// RecordCaption records a caption event, written or deduplicated.
func (m *Metrics) RecordCaption(written bool) {
	if written {
		m.CaptionsWritten.Inc()
		return
	}
	m.CaptionsDeduped.Inc()
}

// RecordWorkerError records a capture worker error.
func (m *Metrics) RecordWorkerError(worker string) {
	m.WorkerErrors.WithLabelValues(worker).Inc()
}

// RecordWorkerLagged records a worker that did not stop within the
// bounded wait.
func (m *Metrics) RecordWorkerLagged(worker string) {
	m.WorkerLagged.WithLabelValues(worker).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordFailedSet updates the failed-set gauge.
func (m *Metrics) RecordFailedSet(size int) {
	m.FailedSetSize.Set(float64(size))
}

// RecordFailedSetClear records an hourly failed-set clear.
func (m *Metrics) RecordFailedSetClear() {
	m.FailedSetClears.Inc()
	m.FailedSetSize.Set(0)
}
