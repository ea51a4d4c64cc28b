package models

// SessionStarted is published when a meeting has been joined and capture
// has begun.
type SessionStarted struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	MeetingID string `json:"meetingId"`
	Title     string `json:"title"`
	OutputDir string `json:"outputDir"`
	Timestamp int64  `json:"timestamp"`
}

// SessionStopped is published when capture has fully shut down.
type SessionStopped struct {
	EventType  string `json:"eventType"`
	SessionID  string `json:"sessionId"`
	MeetingID  string `json:"meetingId"`
	StopReason string `json:"stopReason"`
	DurationMs int64  `json:"durationMs"`
	Timestamp  int64  `json:"timestamp"`
}

// CaptionLine is published for every caption line written to the
// transcript.
type CaptionLine struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	MeetingID string `json:"meetingId"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}
