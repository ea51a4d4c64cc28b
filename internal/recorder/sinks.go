package recorder

import (
	"errors"
	"fmt"
	"image"
	"os"
)

// Capture primitive errors.
var (
	// ErrBufferOverflow marks a transient audio buffer overflow. The
	// audio worker waits briefly and continues.
	ErrBufferOverflow = errors.New("audio buffer overflow")
	// ErrNoAudioDevice means no input device could be opened. Fatal to
	// the session.
	ErrNoAudioDevice = errors.New("no working audio input device found")
)

// FrameGrabber captures full-frame screen images.
type FrameGrabber interface {
	// Bounds returns the capture dimensions in pixels.
	Bounds() (width, height int)
	// Grab captures one frame. A nil or zero-sized image is tolerated
	// by the caller and skipped.
	Grab() (image.Image, error)
}

// VideoSink receives JPEG-encoded frames for one session's video file.
type VideoSink interface {
	WriteFrame(jpeg []byte) error
	Close() error
}

// AudioDevice is one openable input device.
type AudioDevice interface {
	Name() string
	Open() (AudioStream, error)
}

// AudioSource enumerates input devices.
type AudioSource interface {
	Devices() ([]AudioDevice, error)
}

// AudioStream delivers raw PCM chunks. Read returns within a bounded
// time; a nil chunk with a nil error means no data was available yet.
type AudioStream interface {
	Read() ([]byte, error)
	Close() error
}

// AudioSink receives raw PCM for one session's audio file.
type AudioSink interface {
	WritePCM(p []byte) error
	Close() error
}

// MediaSinks builds the per-session video and audio sinks.
type MediaSinks interface {
	NewVideoSink(path string, width, height, fps int) (VideoSink, error)
	NewAudioSink(path string, sampleRate, channels int) (AudioSink, error)
}

// TranscriptSink receives formatted caption lines.
type TranscriptSink interface {
	Append(line string) error
	Close() error
}

const transcriptHeader = "=== Meeting Transcription ===\n\n"

// transcriptFile is the line-oriented transcript sink. Every append is
// synced so the file is readable while the meeting is still live.
type transcriptFile struct {
	f *os.File
}

func newTranscriptFile(path string) (*transcriptFile, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating transcript file: %w", err)
	}
	if _, err := f.WriteString(transcriptHeader); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("writing transcript header: %w", err)
	}
	return &transcriptFile{f: f}, nil
}

func (t *transcriptFile) Append(line string) error {
	if _, err := t.f.WriteString(line); err != nil {
		return err
	}
	return t.f.Sync()
}

func (t *transcriptFile) Close() error {
	return t.f.Close()
}
