package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion gate parameters.
const (
	// MotionWidth is the width frames are reduced to before differencing.
	MotionWidth = 320
	// MotionBlur is the Gaussian kernel applied to the reduced frame.
	MotionBlur = 21
	// MotionDelta is the gray level change that marks a pixel as moved.
	MotionDelta = 25
)

// MotionDetector gates the gesture pipeline: it compares each frame with
// the previous one and reports the share of pixels that changed. It is
// safe for concurrent use.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	hasPrev   bool
	last      float64
}

// NewMotionDetector reports motion when more than threshold percent of
// the pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{threshold: threshold, prev: gocv.NewMat()}
}

// Detect feeds frame and returns whether it moved relative to the
// previous one, with the changed percentage. The first frame after a
// reset only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	cur := reduce(*frame)
	defer cur.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasPrev || m.prev.Rows() != cur.Rows() || m.prev.Cols() != cur.Cols() {
		cur.CopyTo(&m.prev)
		m.hasPrev = true
		m.last = 0
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cur, m.prev, &diff)
	gocv.Threshold(diff, &diff, MotionDelta, 255, gocv.ThresholdBinary)

	m.last = 100 * float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols())
	cur.CopyTo(&m.prev)
	return m.last > m.threshold, m.last
}

// reduce returns a blurred grayscale copy of frame at most MotionWidth wide.
func reduce(frame gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	if gray.Cols() > MotionWidth {
		h := gray.Rows() * MotionWidth / gray.Cols()
		gocv.Resize(gray, &gray, image.Pt(MotionWidth, max(1, h)), 0, 0, gocv.InterpolationArea)
	}
	gocv.GaussianBlur(gray, &gray, image.Pt(MotionBlur, MotionBlur), 0, 0, gocv.BorderDefault)
	return gray
}

// Changed returns the percentage measured by the last Detect.
func (m *MotionDetector) Changed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Reset drops the baseline so the next frame starts a new comparison.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasPrev = false
	m.last = 0
}

// Close releases the baseline frame. The detector can keep being used
// and allocates a fresh baseline.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prev.Close()
	m.prev = gocv.NewMat()
	m.hasPrev = false
}

// SetThreshold changes the motion threshold. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}
