package detector

import (
	"errors"
	"time"

	"gocv.io/x/gocv"
)

// ErrServiceNotFound is returned when the landmark helper script cannot be located.
var ErrServiceNotFound = errors.New("landmark service script not found")

// Detector finds hands in a frame. No hands is an empty slice, not an error.
type Detector interface {
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// Landmarker runs a whole solution on a frame and returns every kind of
// result it produces.
type Landmarker interface {
	Process(frame *gocv.Mat) (*Result, error)
	Close() error
}

// Config tunes the landmark service. Confidences are in [0,1].
type Config struct {
	Solution        Solution // empty means hands
	MaxHands        int
	MaxFaces        int
	MinConfidence   float64
	MinTrackingConf float64
	ObjectronModel  string // "Cup", "Shoe", "Chair" or "Camera"

	// Python and Script override interpreter and helper discovery.
	Python string
	Script string

	// IdleTimeout stops the helper after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig tracks up to two hands or faces at 0.5 confidence.
func DefaultConfig() Config {
	return Config{
		Solution:        SolutionHands,
		MaxHands:        2,
		MaxFaces:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		ObjectronModel:  "Cup",
		IdleTimeout:     30 * time.Second,
	}
}
