// Package capture provides frame sources: webcams and video files through
// GoCV, a playback mock for tests, and a frame-difference motion gate.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a source that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrReadFailed is returned when the device yields no frame.
	ErrReadFailed = errors.New("failed to read frame")
	// ErrEndOfStream is returned by file sources after the last frame.
	ErrEndOfStream = errors.New("end of stream")
)

// Camera is a frame source. ReadFrame hands ownership of the Mat to the
// caller. Implementations are safe for concurrent use so the pipeline and
// the MJPEG stream can share one device.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Options configures a device camera. Zero fields take the defaults.
type Options struct {
	Width  int
	Height int
	FPS    int
	// Mirror flips every frame horizontally so the preview behaves like a mirror.
	Mirror bool
}

// DefaultOptions returns 640x480 at 5 FPS without mirroring.
func DefaultOptions() Options {
	return Options{Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.FPS <= 0 {
		o.FPS = d.FPS
	}
	return o
}

// device reads from a webcam by index.
type device struct {
	mu   sync.Mutex
	id   int
	opts Options
	vc   *gocv.VideoCapture
}

// NewCamera returns device id with default options.
func NewCamera(id int) Camera {
	return NewCameraWithOptions(id, DefaultOptions())
}

// NewCameraWithOptions returns device id configured by opts. The device is
// not touched until Open.
func NewCameraWithOptions(id int, opts Options) Camera {
	return &device{id: id, opts: opts.withDefaults()}
}

// Open starts capture and requests the configured size and rate. Opening
// an open device is a no-op.
func (c *device) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.id)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.id, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.opts.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.opts.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.opts.FPS))
	c.vc = vc

	zap.L().Debug("camera opened",
		zap.Int("device", c.id),
		zap.Int("width", c.opts.Width),
		zap.Int("height", c.opts.Height),
		zap.Bool("mirror", c.opts.Mirror))
	return nil
}

// Close releases the device. Closing a closed device is a no-op.
func (c *device) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil
	}
	err := c.vc.Close()
	c.vc = nil
	return err
}

func (c *device) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if !c.vc.Read(&mat) || mat.Empty() {
		mat.Close()
		return nil, ErrReadFailed
	}
	if c.opts.Mirror {
		Mirror(&mat)
	}
	return &mat, nil
}

// SetFPS changes the requested rate. Non-positive values are ignored.
func (c *device) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opts.FPS = fps
	if c.vc != nil {
		c.vc.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *device) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opts.FPS
}

func (c *device) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vc != nil
}

// Mirror flips frame around the vertical axis in place.
func Mirror(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}
	gocv.Flip(*frame, frame, 1)
}
