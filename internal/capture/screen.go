package capture

import (
	"errors"
	"image"

	"github.com/kbinani/screenshot"
)

// ErrNoDisplay means no active display was found to capture.
var ErrNoDisplay = errors.New("no active display found")

// DisplayGrabber captures the primary display. Bounds are fixed at
// construction time so every frame of a session has the same dimensions.
type DisplayGrabber struct {
	bounds image.Rectangle
}

// NewDisplayGrabber binds to the primary display.
func NewDisplayGrabber() (*DisplayGrabber, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, ErrNoDisplay
	}
	return &DisplayGrabber{bounds: screenshot.GetDisplayBounds(0)}, nil
}

func (g *DisplayGrabber) Bounds() (width, height int) {
	return g.bounds.Dx(), g.bounds.Dy()
}

func (g *DisplayGrabber) Grab() (image.Image, error) {
	return screenshot.CaptureRect(g.bounds)
}
