package capture

import (
	"fmt"

	"github.com/icza/mjpeg"
)

// mjpegSink writes JPEG frames into an MJPEG AVI container. MJPEG keeps
// the encode cost per frame low enough for the capture cadence without
// an external codec.
type mjpegSink struct {
	aw mjpeg.AviWriter
}

func newMJPEGSink(path string, width, height, fps int) (*mjpegSink, error) {
	aw, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("creating video file %s: %w", path, err)
	}
	return &mjpegSink{aw: aw}, nil
}

func (s *mjpegSink) WriteFrame(jpeg []byte) error {
	return s.aw.AddFrame(jpeg)
}

func (s *mjpegSink) Close() error {
	return s.aw.Close()
}
