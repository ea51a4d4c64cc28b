package capture

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavSink writes raw 16-bit little-endian PCM into a WAV file. The
// encoder patches the header on Close, so an unclean shutdown leaves a
// file with a zero-length header that most players still recover.
type wavSink struct {
	f      *os.File
	enc    *wav.Encoder
	format *audio.Format
}

func newWAVSink(path string, sampleRate, channels int) (*wavSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating audio file %s: %w", path, err)
	}
	return &wavSink{
		f:   f,
		enc: wav.NewEncoder(f, sampleRate, 16, channels, 1),
		format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
	}, nil
}

func (s *wavSink) WritePCM(p []byte) error {
	if len(p) < 2 {
		return nil
	}
	samples := make([]int, len(p)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(p[2*i:])))
	}
	return s.enc.Write(&audio.IntBuffer{
		Format:         s.format,
		Data:           samples,
		SourceBitDepth: 16,
	})
}

func (s *wavSink) Close() error {
	if err := s.enc.Close(); err != nil {
		_ = s.f.Close()
		return err
	}
	return s.f.Close()
}
