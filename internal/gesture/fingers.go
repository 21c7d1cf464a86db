package gesture

import "github.com/ayusman/drishti/internal/detector"

// Finger positions within Fingers.
const (
	Thumb = iota
	Index
	Middle
	Ring
	Pinky
)

var fingerTips = [5]int{
	detector.ThumbTip,
	detector.IndexTip,
	detector.MiddleTip,
	detector.RingTip,
	detector.PinkyTip,
}

// ThumbRule selects how the thumb is classified.
type ThumbRule int

const (
	// ThumbIgnored always reports the thumb as down.
	ThumbIgnored ThumbRule = iota
	// ThumbMirrored reports the thumb up when its tip lies right of the IP
	// joint, which holds for a right hand in a mirrored webcam view.
	ThumbMirrored
)

// Fingers reports which fingers are raised, indexed by Thumb..Pinky.
type Fingers [5]bool

// FingersUp classifies each finger of hand. A finger is up when its tip
// is above the joint two landmarks below it (smaller y).
func FingersUp(hand *detector.HandLandmarks, rule ThumbRule) Fingers {
	var f Fingers
	if hand == nil {
		return f
	}
	for i := Index; i <= Pinky; i++ {
		tip := fingerTips[i]
		f[i] = hand.Points[tip].Y < hand.Points[tip-2].Y
	}
	if rule == ThumbMirrored {
		f[Thumb] = hand.Points[detector.ThumbTip].X > hand.Points[detector.ThumbIP].X
	}
	return f
}

// Count returns the number of raised fingers.
func (f Fingers) Count() int {
	n := 0
	for _, up := range f {
		if up {
			n++
		}
	}
	return n
}

// All reports whether all five fingers are up.
func (f Fingers) All() bool {
	return f.Count() == 5
}

// AllFingers reports whether index through pinky are up, ignoring the thumb.
func (f Fingers) AllFingers() bool {
	return f[Index] && f[Middle] && f[Ring] && f[Pinky]
}

// Only reports whether exactly the listed fingers are up.
func (f Fingers) Only(fingers ...int) bool {
	var want Fingers
	for _, i := range fingers {
		if i >= Thumb && i <= Pinky {
			want[i] = true
		}
	}
	return f == want
}
