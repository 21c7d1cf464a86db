package detector

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// ErrCascadeNotLoaded is returned when a cascade file cannot be read.
var ErrCascadeNotLoaded = errors.New("cascade classifier not loaded")

// HaarFaceDetector finds frontal faces with an OpenCV Haar cascade.
type HaarFaceDetector struct {
	classifier   gocv.CascadeClassifier
	mu           sync.Mutex
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

// NewHaarFaceDetector loads the cascade at path.
func NewHaarFaceDetector(path string) (*HaarFaceDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeNotLoaded, path)
	}
	return &HaarFaceDetector{
		classifier:   classifier,
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		MinSize:      image.Pt(80, 80),
	}, nil
}

// Faces returns face rectangles in pixel coordinates.
func (h *HaarFaceDetector) Faces(frame *gocv.Mat) []image.Rectangle {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.classifier.DetectMultiScaleWithParams(gray, h.ScaleFactor, h.MinNeighbors, 0, h.MinSize, image.Point{})
}

// Process reports faces as detections with relative boxes. Cascades
// produce no score, so every detection scores 1.
func (h *HaarFaceDetector) Process(frame *gocv.Mat) (*Result, error) {
	w, ht := frame.Cols(), frame.Rows()
	if w == 0 || ht == 0 {
		return nil, errors.New("empty frame")
	}
	res := &Result{}
	for _, r := range h.Faces(frame) {
		res.Detections = append(res.Detections, Detection{
			Box: RelativeBox{
				XMin:   float64(r.Min.X) / float64(w),
				YMin:   float64(r.Min.Y) / float64(ht),
				Width:  float64(r.Dx()) / float64(w),
				Height: float64(r.Dy()) / float64(ht),
			},
			Score: 1,
		})
	}
	return res, nil
}

// Close releases the classifier.
func (h *HaarFaceDetector) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.classifier.Close()
}
