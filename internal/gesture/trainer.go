package gesture

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/drishti/internal/detector"
)

// ErrNoSamples is returned when training is asked to work on nothing.
var ErrNoSamples = errors.New("gesture: no samples")

// DefaultTolerance is used for trained templates that do not set one.
const DefaultTolerance = 0.3

// StaticSample is one recorded hand pose as stored by the samples API.
type StaticSample struct {
	Type      string             `json:"type"`
	Landmarks []detector.Point3D `json:"landmarks"`
	Timestamp int64              `json:"timestamp"`
}

// DynamicSample is one recorded fingertip path.
type DynamicSample struct {
	Type      string      `json:"type"`
	Path      []PathPoint `json:"path"`
	Timestamp int64       `json:"timestamp"`
}

// Trainer turns recorded samples into matcher templates.
type Trainer struct{}

// NewTrainer creates a Trainer.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// Train builds a template of kind from raw samples.
func (t *Trainer) Train(id, name string, kind Type, tolerance float64, samples []json.RawMessage) (*Template, error) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	tmpl := &Template{ID: id, Name: name, Type: kind, Tolerance: tolerance}

	var err error
	switch kind {
	case TypeStatic:
		tmpl.Landmarks, err = t.TrainStatic(samples)
	case TypeDynamic:
		tmpl.Path, err = t.TrainDynamic(samples)
	default:
		return nil, fmt.Errorf("gesture: unknown type %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}

// TrainStatic averages landmark samples point by point. Complete hands
// (21 points) are normalised first so the template lines up with what
// StaticMatcher compares against; partial samples are averaged as given.
func (t *Trainer) TrainStatic(samples []json.RawMessage) ([]detector.Point3D, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	poses := make([][]detector.Point3D, 0, len(samples))
	for i, raw := range samples {
		var s StaticSample
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse sample %d: %w", i, err)
		}
		if len(s.Landmarks) == 0 {
			return nil, fmt.Errorf("sample %d has no landmarks", i)
		}
		if i > 0 && len(s.Landmarks) != len(poses[0]) {
			return nil, fmt.Errorf("sample %d has %d landmarks, expected %d", i, len(s.Landmarks), len(poses[0]))
		}
		poses = append(poses, normalizePose(s.Landmarks))
	}

	out := make([]detector.Point3D, len(poses[0]))
	n := float64(len(poses))
	for _, pose := range poses {
		for j, p := range pose {
			out[j].X += p.X / n
			out[j].Y += p.Y / n
			out[j].Z += p.Z / n
		}
	}
	return out, nil
}

func normalizePose(points []detector.Point3D) []detector.Point3D {
	if len(points) != detector.NumLandmarks {
		return points
	}
	var hand detector.HandLandmarks
	copy(hand.Points[:], points)
	norm := hand.Normalize()
	return norm.Points[:]
}

// TrainDynamic averages fingertip paths. Every path is resampled to the
// length of the first one; timestamps come from the first path.
func (t *Trainer) TrainDynamic(samples []json.RawMessage) ([]PathPoint, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	paths := make([][]PathPoint, 0, len(samples))
	for i, raw := range samples {
		var s DynamicSample
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("parse sample %d: %w", i, err)
		}
		if len(s.Path) < 2 {
			return nil, fmt.Errorf("sample %d needs at least 2 path points, has %d", i, len(s.Path))
		}
		paths = append(paths, s.Path)
	}

	length := len(paths[0])
	out := make([]PathPoint, length)
	n := float64(len(paths))
	for k, path := range paths {
		resampled := resamplePath(path, length)
		for i, p := range resampled {
			out[i].X += p.X / n
			out[i].Y += p.Y / n
			if k == 0 {
				out[i].Timestamp = p.Timestamp
			}
		}
	}
	return out, nil
}

// resamplePath linearly interpolates path to exactly n points.
func resamplePath(path []PathPoint, n int) []PathPoint {
	switch {
	case len(path) == 0:
		return nil
	case len(path) == 1 || n <= 1:
		return []PathPoint{path[0]}
	}

	out := make([]PathPoint, n)
	last := len(path) - 1
	for i := range out {
		pos := float64(i) / float64(n-1) * float64(last)
		idx := min(int(pos), last-1)
		frac := pos - float64(idx)

		a, b := path[idx], path[idx+1]
		out[i] = PathPoint{
			X:         a.X + frac*(b.X-a.X),
			Y:         a.Y + frac*(b.Y-a.Y),
			Timestamp: a.Timestamp + int64(frac*float64(b.Timestamp-a.Timestamp)),
		}
	}
	return out
}
