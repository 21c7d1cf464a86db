package gesture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// line returns n evenly spaced points from (x0,y) to (x1,y), 50ms apart.
func line(x0, x1, y float64, n int) []PathPoint {
	out := make([]PathPoint, n)
	for i := range out {
		f := float64(i) / float64(n-1)
		out[i] = PathPoint{X: x0 + (x1-x0)*f, Y: y, Timestamp: int64(i) * 50}
	}
	return out
}

func dynamicTemplate(id string, path []PathPoint, tolerance float64) *Template {
	return &Template{ID: id, Name: id, Type: TypeDynamic, Path: path, Tolerance: tolerance}
}

func TestDTWDistance(t *testing.T) {
	left := line(1, 0, 0.5, 5)

	assert.Zero(t, DTWDistance(left, left), "identical")
	assert.Greater(t, DTWDistance(left, line(0, 1, 0.5, 5)), 0.1, "reversed")

	// Same motion sampled at a different rate warps onto itself.
	slow := line(1, 0, 0.5, 13)
	assert.Less(t, DTWDistance(left, slow), 0.1)

	// Constant offset y=0.1 gives 0.1 per aligned pair.
	assert.InDelta(t, 0.1, DTWDistance(left, line(1, 0, 0.6, 5)), 1e-9)
}

func TestDTWDistance_Empty(t *testing.T) {
	p := line(0, 1, 0, 3)
	assert.True(t, math.IsInf(DTWDistance(nil, nil), 1))
	assert.True(t, math.IsInf(DTWDistance(nil, p), 1))
	assert.True(t, math.IsInf(DTWDistance(p, []PathPoint{}), 1))
}

func TestPointDistance(t *testing.T) {
	assert.InDelta(t, 5, pointDistance(PathPoint{}, PathPoint{X: 3, Y: 4, Timestamp: 100}), 1e-12)
}

func TestDynamicMatcher_Match(t *testing.T) {
	m := NewDynamicMatcher()
	m.AddTemplate(dynamicTemplate("swipe-left", line(1, 0, 0.5, 5), 0.5))
	m.AddTemplate(dynamicTemplate("swipe-right", line(0, 1, 0.5, 5), 0.5))

	// Pixel coordinates are scaled into the unit box first.
	matches := m.Match(line(400, 40, 200, 9))
	require.NotEmpty(t, matches)
	assert.Equal(t, "swipe-left", matches[0].Template.ID)
	assert.Greater(t, matches[0].Score, 0.9)
	for _, mt := range matches {
		assert.LessOrEqual(t, mt.Distance, mt.Template.Tolerance)
	}
}

func TestDynamicMatcher_SkipsUnusableTemplates(t *testing.T) {
	m := NewDynamicMatcher()
	m.AddTemplate(&Template{ID: "static", Type: TypeStatic, Tolerance: 100})
	m.AddTemplate(dynamicTemplate("no-path", nil, 100))
	require.Equal(t, 2, m.Len())

	assert.Empty(t, m.Match(line(0, 1, 0, 4)))
	assert.Nil(t, m.Match(nil))
}

func TestDynamicMatcher_RemoveAndClear(t *testing.T) {
	m := NewDynamicMatcher()
	m.AddTemplate(dynamicTemplate("a", line(0, 1, 0, 3), 1))
	m.AddTemplate(dynamicTemplate("b", line(1, 0, 0, 3), 1))

	m.RemoveTemplate("a")
	require.Equal(t, 1, m.Len())
	matches := m.Match(line(1, 0, 0, 3))
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].Template.ID)

	m.Clear()
	assert.Empty(t, m.Match(line(1, 0, 0, 3)))
}

func TestNormalizePath(t *testing.T) {
	got := normalizePath([]PathPoint{{X: 10, Y: 100, Timestamp: 0}, {X: 20, Y: 200, Timestamp: 7}, {X: 15, Y: 150, Timestamp: 9}})
	want := []PathPoint{{X: 0, Y: 0, Timestamp: 0}, {X: 1, Y: 1, Timestamp: 7}, {X: 0.5, Y: 0.5, Timestamp: 9}}
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-12)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-12)
		assert.Equal(t, want[i].Timestamp, got[i].Timestamp)
	}
}

func TestNormalizePath_Degenerate(t *testing.T) {
	assert.Nil(t, normalizePath(nil))
	assert.Empty(t, normalizePath([]PathPoint{}))

	single := normalizePath([]PathPoint{{X: 5, Y: 5, Timestamp: 3}})
	assert.Equal(t, []PathPoint{{Timestamp: 3}}, single)

	// A horizontal line has no Y extent.
	flat := normalizePath(line(2, 4, 7, 3))
	for _, p := range flat {
		assert.Zero(t, p.Y)
	}
	assert.InDelta(t, 0.5, flat[1].X, 1e-12)
}
