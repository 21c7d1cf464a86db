package paint

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Canvas is an 8UC3 drawing surface the size of the camera frame.
type Canvas struct {
	mat        gocv.Mat
	background color.RGBA
}

// NewCanvas creates a w x h canvas filled with background.
func NewCanvas(w, h int, background color.RGBA) *Canvas {
	c := &Canvas{
		mat:        gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3),
		background: background,
	}
	c.Clear()
	return c
}

// Clear refills the canvas with its background colour.
func (c *Canvas) Clear() {
	c.mat.SetTo(gocv.NewScalar(float64(c.background.B), float64(c.background.G), float64(c.background.R), 0))
}

// Draw renders strokes onto the canvas.
func (c *Canvas) Draw(strokes []Stroke) {
	for _, s := range strokes {
		gocv.Line(&c.mat, s.From, s.To, s.Color, s.Thickness)
	}
}

// Apply renders an Update, clearing first when it asks for it.
func (c *Canvas) Apply(u Update) {
	if u.Action == ActionClear {
		c.Clear()
	}
	c.Draw(u.Strokes)
}

// Mat exposes the underlying matrix for merging onto frames.
func (c *Canvas) Mat() gocv.Mat {
	return c.mat
}

// Size returns the canvas width and height.
func (c *Canvas) Size() (w, h int) {
	return c.mat.Cols(), c.mat.Rows()
}

// EncodePNG returns the canvas as PNG bytes.
func (c *Canvas) EncodePNG() ([]byte, error) {
	return EncodePNG(c.mat)
}

// Close releases the matrix.
func (c *Canvas) Close() error {
	return c.mat.Close()
}
