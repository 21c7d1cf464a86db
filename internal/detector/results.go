package detector

import "image"

// Solution names a landmark model served by the helper process.
type Solution string

const (
	SolutionHands         Solution = "hands"
	SolutionFaceMesh      Solution = "face_mesh"
	SolutionPose          Solution = "pose"
	SolutionHolistic      Solution = "holistic"
	SolutionFaceDetection Solution = "face_detection"
	SolutionObjectron     Solution = "objectron"
)

// Valid reports whether s is a known solution.
func (s Solution) Valid() bool {
	switch s {
	case SolutionHands, SolutionFaceMesh, SolutionPose, SolutionHolistic,
		SolutionFaceDetection, SolutionObjectron:
		return true
	}
	return false
}

// NumFaceLandmarks is the face mesh size without iris refinement.
const NumFaceLandmarks = 468

// FaceLandmarks is one face mesh. Refined meshes carry 478 points.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// Bounds returns the pixel bounding box of the mesh in a w x h frame.
func (f *FaceLandmarks) Bounds(w, h int) image.Rectangle {
	return PixelBounds(f.Points, w, h)
}

// Pose landmark indices.
const (
	PoseNose          = 0
	PoseLeftEyeInner  = 1
	PoseLeftEye       = 2
	PoseLeftEyeOuter  = 3
	PoseRightEyeInner = 4
	PoseRightEye      = 5
	PoseRightEyeOuter = 6
	PoseLeftEar       = 7
	PoseRightEar      = 8
	PoseMouthLeft     = 9
	PoseMouthRight    = 10
	PoseLeftShoulder  = 11
	PoseRightShoulder = 12
	PoseLeftElbow     = 13
	PoseRightElbow    = 14
	PoseLeftWrist     = 15
	PoseRightWrist    = 16
	PoseLeftPinky     = 17
	PoseRightPinky    = 18
	PoseLeftIndex     = 19
	PoseRightIndex    = 20
	PoseLeftThumb     = 21
	PoseRightThumb    = 22
	PoseLeftHip       = 23
	PoseRightHip      = 24
	PoseLeftKnee      = 25
	PoseRightKnee     = 26
	PoseLeftAnkle     = 27
	PoseRightAnkle    = 28
	PoseLeftHeel      = 29
	PoseRightHeel     = 30
	PoseLeftFootIndex = 31
	PoseRightFoot     = 32
	NumPoseLandmarks  = 33
)

// PoseLandmarks is a full-body pose.
type PoseLandmarks struct {
	Points     [NumPoseLandmarks]Point3D `json:"points"`
	Visibility [NumPoseLandmarks]float64 `json:"visibility"`
}

// RelativeBox is a bounding box in normalized frame coordinates.
type RelativeBox struct {
	XMin   float64 `json:"xmin"`
	YMin   float64 `json:"ymin"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect converts the box to pixels in a w x h frame.
func (b RelativeBox) Rect(w, h int) image.Rectangle {
	x := int(b.XMin * float64(w))
	y := int(b.YMin * float64(h))
	return image.Rect(x, y, x+int(b.Width*float64(w)), y+int(b.Height*float64(h)))
}

// Detection is one face detection result.
type Detection struct {
	Box       RelativeBox `json:"box"`
	Score     float64     `json:"score"`
	Keypoints []Point3D   `json:"keypoints,omitempty"`
}

// NumBoxLandmarks is the number of projected objectron keypoints: the
// box centre followed by its eight corners.
const NumBoxLandmarks = 9

// Object3D is one objectron detection.
type Object3D struct {
	Landmarks2D [NumBoxLandmarks]Point3D `json:"landmarks_2d"`
	Rotation    [9]float64               `json:"rotation"`
	Translation [3]float64               `json:"translation"`
}

// Result carries everything one solution can produce for a frame.
// Fields a solution does not produce stay empty.
type Result struct {
	Hands      []HandLandmarks `json:"hands,omitempty"`
	Faces      []FaceLandmarks `json:"faces,omitempty"`
	Pose       *PoseLandmarks  `json:"pose,omitempty"`
	Detections []Detection     `json:"detections,omitempty"`
	Objects    []Object3D      `json:"objects,omitempty"`
}

// Empty reports whether nothing was detected.
func (r *Result) Empty() bool {
	return r == nil || (len(r.Hands) == 0 && len(r.Faces) == 0 && r.Pose == nil &&
		len(r.Detections) == 0 && len(r.Objects) == 0)
}
