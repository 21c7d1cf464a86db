package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector stands in for the MediaPipe service in tests. It returns
// whatever was configured and counts the frames it was handed.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	result *Result
	err    error
	calls  int
}

// NewMockDetector returns a mock that reports no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands reported for every frame.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	m.hands = hands
	m.mu.Unlock()
}

// SetResult sets a full result for Process. Without one, Process wraps
// the configured hands.
func (m *MockDetector) SetResult(res *Result) {
	m.mu.Lock()
	m.result = res
	m.mu.Unlock()
}

// SetError makes every following call fail with err.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Calls returns how many frames were processed.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the hands of the configured result.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	res, err := m.Process(frame)
	if err != nil {
		return nil, err
	}
	return res.Hands, nil
}

// Process returns the configured result or error.
func (m *MockDetector) Process(*gocv.Mat) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	switch {
	case m.err != nil:
		return nil, m.err
	case m.result != nil:
		return m.result, nil
	}
	return &Result{Hands: m.hands}, nil
}

// Close is a no-op.
func (m *MockDetector) Close() error { return nil }

// fixtureHand builds a right hand from a wrist and four joints per finger,
// thumb first, in MediaPipe index order.
func fixtureHand(wrist Point3D, fingers [5][4]Point3D) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = wrist
	for f, joints := range fingers {
		for j, p := range joints {
			h.Points[1+f*4+j] = p
		}
	}
	return h
}

// ThumbsUpLandmarks is a fist with the thumb raised. Image Y grows
// downward, so "up" is decreasing Y.
func ThumbsUpLandmarks() HandLandmarks {
	return fixtureHand(Point3D{X: 0.5, Y: 0.8}, [5][4]Point3D{
		{{X: 0.55, Y: 0.75}, {X: 0.58, Y: 0.65}, {X: 0.58, Y: 0.50}, {X: 0.58, Y: 0.35}},
		{{X: 0.55, Y: 0.70, Z: -0.02}, {X: 0.55, Y: 0.68, Z: -0.05}, {X: 0.52, Y: 0.70, Z: -0.04}, {X: 0.50, Y: 0.72, Z: -0.02}},
		{{X: 0.50, Y: 0.68, Z: -0.02}, {X: 0.50, Y: 0.66, Z: -0.05}, {X: 0.47, Y: 0.68, Z: -0.04}, {X: 0.45, Y: 0.70, Z: -0.02}},
		{{X: 0.45, Y: 0.70, Z: -0.02}, {X: 0.45, Y: 0.68, Z: -0.05}, {X: 0.42, Y: 0.70, Z: -0.04}, {X: 0.40, Y: 0.72, Z: -0.02}},
		{{X: 0.40, Y: 0.72, Z: -0.02}, {X: 0.40, Y: 0.70, Z: -0.05}, {X: 0.37, Y: 0.72, Z: -0.04}, {X: 0.35, Y: 0.74, Z: -0.02}},
	})
}

// OpenPalmLandmarks is a hand with every finger spread.
func OpenPalmLandmarks() HandLandmarks {
	return fixtureHand(Point3D{X: 0.5, Y: 0.8}, [5][4]Point3D{
		{{X: 0.55, Y: 0.75, Z: 0.02}, {X: 0.62, Y: 0.70, Z: 0.03}, {X: 0.68, Y: 0.65, Z: 0.03}, {X: 0.73, Y: 0.60, Z: 0.03}},
		{{X: 0.55, Y: 0.68}, {X: 0.57, Y: 0.55}, {X: 0.58, Y: 0.45}, {X: 0.58, Y: 0.35}},
		{{X: 0.50, Y: 0.66}, {X: 0.50, Y: 0.52}, {X: 0.50, Y: 0.40}, {X: 0.50, Y: 0.28}},
		{{X: 0.45, Y: 0.68}, {X: 0.43, Y: 0.55}, {X: 0.42, Y: 0.45}, {X: 0.42, Y: 0.35}},
		{{X: 0.40, Y: 0.70}, {X: 0.37, Y: 0.60}, {X: 0.35, Y: 0.50}, {X: 0.34, Y: 0.42}},
	})
}

// PointingLandmarks is the thumbs-up fist with the thumb tucked and the
// index finger raised instead.
func PointingLandmarks() HandLandmarks {
	h := ThumbsUpLandmarks()
	h.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.68}
	h.Points[ThumbTip] = Point3D{X: 0.52, Y: 0.66}
	copy(h.Points[IndexMCP:IndexTip+1], []Point3D{
		{X: 0.55, Y: 0.68}, {X: 0.56, Y: 0.55}, {X: 0.56, Y: 0.45}, {X: 0.56, Y: 0.36},
	})
	return h
}

// TPoseLandmarks returns a standing pose with both arms stretched sideways.
func TPoseLandmarks() PoseLandmarks {
	var p PoseLandmarks
	for i := range p.Points {
		p.Points[i] = Point3D{X: 0.5, Y: 0.5}
		p.Visibility[i] = 0.9
	}
	p.Points[PoseNose] = Point3D{X: 0.5, Y: 0.2}
	p.Points[PoseLeftShoulder] = Point3D{X: 0.6, Y: 0.35}
	p.Points[PoseRightShoulder] = Point3D{X: 0.4, Y: 0.35}
	p.Points[PoseLeftElbow] = Point3D{X: 0.72, Y: 0.35}
	p.Points[PoseRightElbow] = Point3D{X: 0.28, Y: 0.35}
	p.Points[PoseLeftWrist] = Point3D{X: 0.85, Y: 0.35}
	p.Points[PoseRightWrist] = Point3D{X: 0.15, Y: 0.35}
	p.Points[PoseLeftHip] = Point3D{X: 0.56, Y: 0.65}
	p.Points[PoseRightHip] = Point3D{X: 0.44, Y: 0.65}
	p.Points[PoseLeftKnee] = Point3D{X: 0.56, Y: 0.8}
	p.Points[PoseRightKnee] = Point3D{X: 0.44, Y: 0.8}
	p.Points[PoseLeftAnkle] = Point3D{X: 0.56, Y: 0.95}
	p.Points[PoseRightAnkle] = Point3D{X: 0.44, Y: 0.95}
	return p
}
