package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"

	"meet-notes-recorder/internal/recorder"
)

// readWait bounds how long a stream Read blocks when no PCM arrived.
const readWait = 250 * time.Millisecond

// chunkBacklog is the number of PCM chunks buffered between the device
// callback and the reader before chunks are dropped.
const chunkBacklog = 64

// MalgoSource enumerates capture devices through miniaudio. The audio
// context is created lazily on first use and shared by all devices
// opened from this source.
type MalgoSource struct {
	sampleRate  int
	channels    int
	chunkFrames int

	mu  sync.Mutex
	ctx *malgo.AllocatedContext
}

func NewMalgoSource(sampleRate, channels, chunkFrames int) *MalgoSource {
	return &MalgoSource{
		sampleRate:  sampleRate,
		channels:    channels,
		chunkFrames: chunkFrames,
	}
}

func (s *MalgoSource) context() (*malgo.AllocatedContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		return s.ctx, nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing audio context: %w", err)
	}
	s.ctx = ctx
	return ctx, nil
}

// Devices lists the capture devices currently known to the backend.
func (s *MalgoSource) Devices() ([]recorder.AudioDevice, error) {
	ctx, err := s.context()
	if err != nil {
		return nil, err
	}
	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerating capture devices: %w", err)
	}
	devices := make([]recorder.AudioDevice, 0, len(infos))
	for _, info := range infos {
		devices = append(devices, &malgoDevice{source: s, info: info})
	}
	return devices, nil
}

// Close tears down the shared audio context. Call only after every
// stream opened from this source has been closed.
func (s *MalgoSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil
	}
	err := s.ctx.Uninit()
	s.ctx.Free()
	s.ctx = nil
	return err
}

type malgoDevice struct {
	source *MalgoSource
	info   malgo.DeviceInfo
}

func (d *malgoDevice) Name() string {
	return d.info.Name()
}

func (d *malgoDevice) Open() (recorder.AudioStream, error) {
	ctx, err := d.source.context()
	if err != nil {
		return nil, err
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = uint32(d.source.channels)
	cfg.Capture.DeviceID = d.info.ID.Pointer()
	cfg.SampleRate = uint32(d.source.sampleRate)
	cfg.PeriodSizeInFrames = uint32(d.source.chunkFrames)

	stream := &malgoStream{
		chunks:   make(chan []byte, chunkBacklog),
		overflow: make(chan struct{}, 1),
	}
	callbacks := malgo.DeviceCallbacks{
		// The callback runs on the backend's audio thread and must never
		// block, so a full backlog drops the chunk and flags overflow.
		Data: func(_, input []byte, _ uint32) {
			buf := make([]byte, len(input))
			copy(buf, input)
			select {
			case stream.chunks <- buf:
			default:
				select {
				case stream.overflow <- struct{}{}:
				default:
				}
			}
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, cfg, callbacks)
	if err != nil {
		return nil, fmt.Errorf("opening device %q: %w", d.info.Name(), err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("starting device %q: %w", d.info.Name(), err)
	}
	stream.dev = dev
	return stream, nil
}

type malgoStream struct {
	dev       *malgo.Device
	chunks    chan []byte
	overflow  chan struct{}
	closeOnce sync.Once
}

// Read returns the next PCM chunk, a nil chunk when nothing arrived
// within the wait window, or ErrBufferOverflow when the device callback
// had to drop data since the previous read.
func (s *malgoStream) Read() ([]byte, error) {
	select {
	case <-s.overflow:
		return nil, recorder.ErrBufferOverflow
	default:
	}
	select {
	case chunk := <-s.chunks:
		return chunk, nil
	case <-time.After(readWait):
		return nil, nil
	}
}

func (s *malgoStream) Close() error {
	s.closeOnce.Do(func() {
		s.dev.Uninit()
	})
	return nil
}
