package gesture

import (
	"image"
	"time"
)

// Trail is a fixed-capacity buffer of pixel positions, newest first.
// Pushing past capacity drops the oldest point.
type Trail struct {
	points []image.Point
	stamps []int64
	head   int // index of the newest point
	size   int
}

// Segment is one line of a rendered trail.
type Segment struct {
	From      image.Point
	To        image.Point
	Thickness int
}

// NewTrail creates a trail holding at most capacity points.
func NewTrail(capacity int) *Trail {
	if capacity < 1 {
		capacity = 1
	}
	return &Trail{
		points: make([]image.Point, capacity),
		stamps: make([]int64, capacity),
		head:   -1,
	}
}

// Push records p as the newest point.
func (t *Trail) Push(p image.Point) {
	t.PushAt(p, time.Now())
}

// PushAt records p with an explicit timestamp.
func (t *Trail) PushAt(p image.Point, at time.Time) {
	t.head = (t.head + 1) % len(t.points)
	t.points[t.head] = p
	t.stamps[t.head] = at.UnixMilli()
	if t.size < len(t.points) {
		t.size++
	}
}

// Len returns the number of stored points.
func (t *Trail) Len() int { return t.size }

// Cap returns the trail capacity.
func (t *Trail) Cap() int { return len(t.points) }

// Clear drops every point.
func (t *Trail) Clear() {
	t.head = -1
	t.size = 0
}

// At returns the i-th point, 0 being the newest.
func (t *Trail) At(i int) image.Point {
	return t.points[t.index(i)]
}

func (t *Trail) index(i int) int {
	n := len(t.points)
	return ((t.head-i)%n + n) % n
}

// Points returns a copy of the stored points, newest first.
func (t *Trail) Points() []image.Point {
	out := make([]image.Point, t.size)
	for i := range out {
		out[i] = t.At(i)
	}
	return out
}

// Segments returns the lines joining consecutive points. Older segments
// taper from maxThickness down to 1.
func (t *Trail) Segments(maxThickness int) []Segment {
	if t.size < 2 {
		return nil
	}
	segs := make([]Segment, 0, t.size-1)
	n := float64(t.size)
	for i := 1; i < t.size; i++ {
		thickness := int(float64(maxThickness) * (1 - float64(i)/n))
		segs = append(segs, Segment{
			From:      t.At(i - 1),
			To:        t.At(i),
			Thickness: max(1, thickness),
		})
	}
	return segs
}

// Path converts the trail to a dynamic gesture path, oldest first, with
// coordinates scaled by the frame size.
func (t *Trail) Path(width, height int) []PathPoint {
	if t.size == 0 || width <= 0 || height <= 0 {
		return nil
	}
	path := make([]PathPoint, t.size)
	for i := 0; i < t.size; i++ {
		idx := t.index(t.size - 1 - i)
		p := t.points[idx]
		path[i] = PathPoint{
			X:         float64(p.X) / float64(width),
			Y:         float64(p.Y) / float64(height),
			Timestamp: t.stamps[idx],
		}
	}
	return path
}
