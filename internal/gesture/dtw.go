package gesture

import (
	"math"
)

// DTWDistance is the dynamic time warping distance between two paths,
// divided by the longer path's length so it does not grow with duration.
// It is +Inf when either path is empty.
func DTWDistance(a, b []PathPoint) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	// Only the previous row of the cost matrix is needed.
	prev := make([]float64, m+1)
	cur := make([]float64, m+1)
	for j := 1; j <= m; j++ {
		prev[j] = math.Inf(1)
	}
	for i := 1; i <= n; i++ {
		cur[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			cur[j] = pointDistance(a[i-1], b[j-1]) + min(prev[j], cur[j-1], prev[j-1])
		}
		prev, cur = cur, prev
	}
	return prev[m] / float64(max(n, m))
}

func pointDistance(a, b PathPoint) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DynamicMatcher matches fingertip paths against dynamic templates.
type DynamicMatcher struct {
	templateSet
}

// NewDynamicMatcher returns an empty matcher.
func NewDynamicMatcher() *DynamicMatcher {
	return &DynamicMatcher{}
}

// Match scales path into the unit box and returns every dynamic template
// within tolerance, best first. Templates are scaled the same way so
// speed and size of the motion do not matter.
func (m *DynamicMatcher) Match(path []PathPoint) []Match {
	input := normalizePath(path)
	if len(input) == 0 {
		return nil
	}

	var matches []Match
	m.each(TypeDynamic, func(t *Template) {
		if len(t.Path) == 0 {
			return
		}
		d := DTWDistance(input, normalizePath(t.Path))
		if !math.IsInf(d, 1) && d <= t.Tolerance {
			matches = append(matches, Match{Template: t, Score: score(d), Distance: d})
		}
	})
	return rank(matches)
}

// normalizePath maps each axis of path onto [0,1] independently. An axis
// with no extent collapses to 0. Timestamps are kept.
func normalizePath(path []PathPoint) []PathPoint {
	if path == nil {
		return nil
	}
	out := make([]PathPoint, len(path))
	if len(path) == 0 {
		return out
	}

	lo, hi := path[0], path[0]
	for _, p := range path[1:] {
		lo.X, hi.X = min(lo.X, p.X), max(hi.X, p.X)
		lo.Y, hi.Y = min(lo.Y, p.Y), max(hi.Y, p.Y)
	}
	unit := func(v, lo, hi float64) float64 {
		if hi <= lo {
			return 0
		}
		return (v - lo) / (hi - lo)
	}
	for i, p := range path {
		out[i] = PathPoint{X: unit(p.X, lo.X, hi.X), Y: unit(p.Y, lo.Y, hi.Y), Timestamp: p.Timestamp}
	}
	return out
}
