package gesture

import (
	"image"
	"math"
)

// DefaultPinchThreshold is the thumb-to-index distance, in pixels, under
// which the hand counts as pinching.
const DefaultPinchThreshold = 40.0

// PinchDistance returns the Euclidean pixel distance between a and b.
func PinchDistance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

// IsPinch reports whether d is under threshold.
func IsPinch(d, threshold float64) bool {
	return d < threshold
}
