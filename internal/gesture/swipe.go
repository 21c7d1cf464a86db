package gesture

import (
	"math"
	"time"

	"github.com/ayusman/drishti/internal/detector"
)

// Direction is a detected swipe direction.
type Direction string

const (
	SwipeNone  Direction = ""
	SwipeLeft  Direction = "left"
	SwipeRight Direction = "right"
	SwipeUp    Direction = "up"
	SwipeDown  Direction = "down"
)

// SwipeOptions tunes a SwipeTracker.
type SwipeOptions struct {
	Alpha      float64       // EMA weight of the newest position
	ThresholdX float64       // minimum |dx| in normalized units
	ThresholdY float64       // minimum |dy| in normalized units
	Cooldown   time.Duration // minimum gap between triggers
}

// DefaultSwipeOptions returns the tuned defaults.
func DefaultSwipeOptions() SwipeOptions {
	return SwipeOptions{
		Alpha:      0.6,
		ThresholdX: 0.05,
		ThresholdY: 0.05,
		Cooldown:   500 * time.Millisecond,
	}
}

type point2 struct{ x, y float64 }

// SwipeTracker classifies frame-to-frame index fingertip motion into swipes.
// It is not safe for concurrent use.
type SwipeTracker struct {
	opts        SwipeOptions
	smoothed    *point2
	rawLast     *point2
	lastTrigger time.Time
}

// NewSwipeTracker creates a tracker with opts.
func NewSwipeTracker(opts SwipeOptions) *SwipeTracker {
	return &SwipeTracker{opts: opts}
}

// Update feeds the hand seen in the current frame. A nil hand resets the
// motion state. Directions follow the mirrored view, so a positive dx in
// camera space reads as a swipe to the left.
func (t *SwipeTracker) Update(hand *detector.HandLandmarks) Direction {
	if hand == nil {
		t.Reset()
		return SwipeNone
	}

	tip := hand.Points[detector.IndexTip]
	raw := point2{tip.X, tip.Y}
	if t.rawLast == nil {
		t.rawLast = &raw
	}

	dx := raw.x - t.rawLast.x
	dy := raw.y - t.rawLast.y

	if t.smoothed == nil {
		s := raw
		t.smoothed = &s
	} else {
		a := t.opts.Alpha
		t.smoothed.x = a*raw.x + (1-a)*t.smoothed.x
		t.smoothed.y = a*raw.y + (1-a)*t.smoothed.y
	}
	last := raw
	t.rawLast = &last

	adx, ady := math.Abs(dx), math.Abs(dy)
	switch {
	case adx > t.opts.ThresholdX && adx > ady:
		if dx > 0 {
			return SwipeLeft
		}
		return SwipeRight
	case ady > t.opts.ThresholdY && ady > adx:
		if dy > 0 {
			return SwipeDown
		}
		return SwipeUp
	}
	return SwipeNone
}

// Reset clears the motion state. The trigger cooldown is kept.
func (t *SwipeTracker) Reset() {
	t.smoothed = nil
	t.rawLast = nil
}

// Smoothed returns the EMA-smoothed fingertip position.
func (t *SwipeTracker) Smoothed() (x, y float64, ok bool) {
	if t.smoothed == nil {
		return 0, 0, false
	}
	return t.smoothed.x, t.smoothed.y, true
}

// Trigger reports whether d should fire at now, honouring the cooldown.
// A firing trigger starts a new cooldown window.
func (t *SwipeTracker) Trigger(d Direction, now time.Time) bool {
	if d == SwipeNone {
		return false
	}
	if !t.lastTrigger.IsZero() && now.Sub(t.lastTrigger) <= t.opts.Cooldown {
		return false
	}
	t.lastTrigger = now
	return true
}
