// Package capture provides the concrete media primitives behind the
// recorder's interfaces: display grabbing, MJPEG video files, miniaudio
// input devices and WAV audio files.
package capture

import (
	"meet-notes-recorder/internal/recorder"
)

// Sinks builds per-session MJPEG video and WAV audio files.
type Sinks struct{}

func (Sinks) NewVideoSink(path string, width, height, fps int) (recorder.VideoSink, error) {
	return newMJPEGSink(path, width, height, fps)
}

func (Sinks) NewAudioSink(path string, sampleRate, channels int) (recorder.AudioSink, error) {
	return newWAVSink(path, sampleRate, channels)
}
