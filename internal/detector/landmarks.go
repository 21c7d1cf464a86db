// Package detector defines landmark types and the services that produce them:
// a MediaPipe helper process for hands, faces, pose and objects, and an
// OpenCV Haar cascade for plain face boxes.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Scaled returns p with every coordinate multiplied by s.
func (p Point3D) Scaled(s float64) Point3D {
	return Point3D{X: p.X * s, Y: p.Y * s, Z: p.Z * s}
}

// Norm is the Euclidean length of p.
func (p Point3D) Norm() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// Normalize returns a copy of the hand moved so the wrist sits at the
// origin and scaled so the wrist to middle MCP distance is 1. A degenerate
// hand, with both points equal, is only translated. A nil hand gives nil.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	out := &HandLandmarks{Handedness: h.Handedness, Score: h.Score}
	origin := h.Points[Wrist]
	for i, p := range h.Points {
		out.Points[i] = p.Sub(origin)
	}

	size := out.Points[MiddleMCP].Norm()
	if size < 1e-10 {
		return out
	}
	for i := range out.Points {
		out.Points[i] = out.Points[i].Scaled(1 / size)
	}
	return out
}
