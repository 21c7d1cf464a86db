package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// VideoFile is a Camera backed by a video file. ReadFrame returns
// ErrEndOfStream after the last frame.
type VideoFile struct {
	path    string
	capture *gocv.VideoCapture
	mu      sync.Mutex
	fps     int
	running bool
}

// NewVideoFile creates a source for the file at path. Nothing is opened
// until Open.
func NewVideoFile(path string) *VideoFile {
	return &VideoFile{path: path}
}

// Open opens the file and reads its native frame rate.
func (v *VideoFile) Open() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.running {
		return nil
	}

	capture, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", v.path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("open video %s: not readable", v.path)
	}

	if v.fps <= 0 {
		v.fps = int(capture.Get(gocv.VideoCaptureFPS))
	}
	if v.fps <= 0 {
		v.fps = 25
	}

	v.capture = capture
	v.running = true
	return nil
}

// Close releases the file.
func (v *VideoFile) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		v.running = false
		return nil
	}
	err := v.capture.Close()
	v.capture = nil
	v.running = false
	return err
}

// ReadFrame returns the next frame. The caller closes the Mat.
func (v *VideoFile) ReadFrame() (*gocv.Mat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.running || v.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := v.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, ErrEndOfStream
	}
	return &mat, nil
}

// SetFPS overrides the playback rate. Values <= 0 are ignored.
func (v *VideoFile) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fps = fps
}

// FPS returns the playback rate.
func (v *VideoFile) FPS() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fps
}

// IsOpen reports whether the file is open.
func (v *VideoFile) IsOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.running
}

// FrameCount returns the number of frames the container reports.
func (v *VideoFile) FrameCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.capture == nil {
		return 0
	}
	return int(v.capture.Get(gocv.VideoCaptureFrameCount))
}

// Position returns the index of the next frame to be read.
func (v *VideoFile) Position() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.capture == nil {
		return 0
	}
	return int(v.capture.Get(gocv.VideoCapturePosFrames))
}

// Seek moves to frame index n.
func (v *VideoFile) Seek(n int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.capture == nil {
		return ErrCameraNotOpen
	}
	v.capture.Set(gocv.VideoCapturePosFrames, float64(n))
	return nil
}
