package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrames is returned by a MockCamera that was given nothing to play.
var ErrNoFrames = errors.New("capture: no frames available")

// MockCamera plays back a fixed frame sequence in place of a device.
// Without looping it behaves like a file source and ends with
// ErrEndOfStream. Callers own the returned clones.
type MockCamera struct {
	mu     sync.Mutex
	frames []*gocv.Mat
	next   int
	loop   bool
	fps    int
	open   bool
	reads  int
}

// NewMockCamera plays frames in order, wrapping around when loop is set.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{frames: frames, loop: loop, fps: DefaultFPS}
}

// Open rewinds playback.
func (c *MockCamera) Open() error {
	c.mu.Lock()
	c.open, c.next = true, 0
	c.mu.Unlock()
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case !c.open:
		return nil, ErrCameraNotOpen
	case len(c.frames) == 0:
		return nil, ErrNoFrames
	case c.next == len(c.frames) && !c.loop:
		return nil, ErrEndOfStream
	}

	frame := c.frames[c.next%len(c.frames)].Clone()
	c.next = c.next%len(c.frames) + 1
	c.reads++
	return &frame, nil
}

// SetFPS records fps. Playback speed is driven by the caller.
func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	c.fps = fps
	c.mu.Unlock()
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Reads returns how many frames have been handed out.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
