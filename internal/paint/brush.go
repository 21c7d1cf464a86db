// Package paint turns hand landmarks into brush strokes for the drawing
// demos. Painter holds the pure decision logic; Canvas renders strokes
// with gocv and Saver writes finished artwork to disk.
package paint

import (
	"image"
	"image/color"
)

// Stroke is one line segment to render onto a canvas.
type Stroke struct {
	From      image.Point
	To        image.Point
	Color     color.RGBA
	Thickness int
}

// Brush tracks the pen position between frames. The first point after
// the pen goes down produces a dot.
type Brush struct {
	prev image.Point
	down bool
}

// To moves the pen to p and returns the stroke from the previous point.
func (b *Brush) To(p image.Point, c color.RGBA, thickness int) Stroke {
	if !b.down {
		b.prev = p
		b.down = true
	}
	s := Stroke{From: b.prev, To: p, Color: c, Thickness: thickness}
	b.prev = p
	return s
}

// Lift raises the pen so the next stroke starts fresh.
func (b *Brush) Lift() {
	b.down = false
}

// Down reports whether the pen is on the canvas.
func (b *Brush) Down() bool {
	return b.down
}
