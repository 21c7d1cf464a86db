// Package gesture recognises hand gestures: trained static poses and
// dynamic paths, finger states, pinches, swipes and fingertip trails.
package gesture

import (
	"cmp"
	"slices"
	"sync"

	"github.com/ayusman/drishti/internal/detector"
)

// Type is the kind of a trained gesture.
type Type string

const (
	TypeStatic  Type = "static"  // a held hand pose
	TypeDynamic Type = "dynamic" // a fingertip path over time
)

// Template is a trained gesture. Static templates carry normalised
// landmarks, dynamic ones a path. A candidate matches when its distance
// is at most Tolerance.
type Template struct {
	ID        string
	Name      string
	Type      Type
	Landmarks []detector.Point3D
	Path      []PathPoint
	Tolerance float64
}

// PathPoint is one fingertip sample of a dynamic gesture, in normalised
// image coordinates.
type PathPoint struct {
	X         float64
	Y         float64
	Timestamp int64 // milliseconds
}

// Match is a template that accepted an input. Score is 1/(1+Distance).
type Match struct {
	Template *Template
	Score    float64
	Distance float64
}

func score(distance float64) float64 { return 1 / (1 + distance) }

// rank orders matches best first.
func rank(matches []Match) []Match {
	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return matches
}

// templateSet is the template list shared by both matchers. The server
// reloads templates while the pipeline matches, so access is locked.
type templateSet struct {
	mu        sync.RWMutex
	templates []*Template
}

// AddTemplate registers t. Nil is ignored.
func (s *templateSet) AddTemplate(t *Template) {
	if t == nil {
		return
	}
	s.mu.Lock()
	s.templates = append(s.templates, t)
	s.mu.Unlock()
}

// RemoveTemplate drops the template with id, if any.
func (s *templateSet) RemoveTemplate(id string) {
	s.mu.Lock()
	s.templates = slices.DeleteFunc(s.templates, func(t *Template) bool { return t.ID == id })
	s.mu.Unlock()
}

// Len returns the number of registered templates.
func (s *templateSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

// Clear drops every template.
func (s *templateSet) Clear() {
	s.mu.Lock()
	s.templates = nil
	s.mu.Unlock()
}

// each calls fn for every template of type typ under the read lock.
func (s *templateSet) each(typ Type, fn func(*Template)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.templates {
		if t.Type == typ {
			fn(t)
		}
	}
}

// StaticMatcher matches a single hand pose against static templates.
type StaticMatcher struct {
	templateSet
}

// NewStaticMatcher returns an empty matcher.
func NewStaticMatcher() *StaticMatcher {
	return &StaticMatcher{}
}

// Match normalises hand and returns every static template within
// tolerance, best first.
func (m *StaticMatcher) Match(hand *detector.HandLandmarks) []Match {
	if hand == nil {
		return nil
	}
	normalized := hand.Normalize()
	if normalized == nil {
		return nil
	}
	input := normalized.Points[:]

	var matches []Match
	m.each(TypeStatic, func(t *Template) {
		if len(t.Landmarks) == 0 {
			return
		}
		d := landmarkDistance(input, t.Landmarks)
		if d <= t.Tolerance {
			matches = append(matches, Match{Template: t, Score: score(d), Distance: d})
		}
	})
	return rank(matches)
}

// landmarkDistance sums the point-wise distances over the shorter of the
// two sets.
func landmarkDistance(a, b []detector.Point3D) float64 {
	var total float64
	for i, n := 0, min(len(a), len(b)); i < n; i++ {
		total += a[i].Sub(b[i]).Norm()
	}
	return total
}
