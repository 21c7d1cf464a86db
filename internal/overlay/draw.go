package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/gesture"
)

// Text defaults shared by every demo.
const (
	Font          = gocv.FontHersheySimplex
	FontScale     = 1.0
	FontThickness = 2

	hudLineHeight = 20
	hudPadding    = 5
	hudWidth      = 430
)

// Label draws text with the default font.
func Label(img *gocv.Mat, text string, at image.Point, c color.RGBA) {
	gocv.PutText(img, text, at, Font, FontScale, c, FontThickness)
}

// SmallLabel draws text at half the default scale.
func SmallLabel(img *gocv.Mat, text string, at image.Point, c color.RGBA) {
	gocv.PutText(img, text, at, Font, FontScale/2, c, 1)
}

// HUDRect is the box HUD draws behind n instruction lines.
func HUDRect(n int) image.Rectangle {
	return image.Rect(hudPadding, hudPadding, hudWidth, 2*hudPadding+hudLineHeight*n)
}

// HUD draws instruction lines in white on a filled black box in the
// top-left corner.
func HUD(img *gocv.Mat, lines []string) {
	if len(lines) == 0 {
		return
	}
	gocv.Rectangle(img, HUDRect(len(lines)), Black, -1)
	for i, line := range lines {
		at := image.Pt(2*hudPadding, hudPadding+hudLineHeight*(i+1))
		gocv.PutText(img, line, at, Font, 0.5, White, 1)
	}
}

// DrawTrail draws trail segments with their tapering thickness.
func DrawTrail(img *gocv.Mat, segs []gesture.Segment, c color.RGBA) {
	for _, s := range segs {
		gocv.Line(img, s.From, s.To, c, s.Thickness)
	}
}

// DrawTrailPoints draws a trail through pts with a fixed thickness.
func DrawTrailPoints(img *gocv.Mat, pts []image.Point, c color.RGBA, thickness int) {
	for i := 1; i < len(pts); i++ {
		gocv.Line(img, pts[i-1], pts[i], c, thickness)
	}
}

// Swatch is one toolbar colour occupying the open x-band (MinX, MaxX).
type Swatch struct {
	Name  string
	Color color.RGBA
	MinX  int
	MaxX  int
}

// Contains reports whether x falls inside the swatch band.
func (s Swatch) Contains(x int) bool {
	return x > s.MinX && x < s.MaxX
}

// Toolbar fills a strip of height pixels along the top of img with the
// swatches. The selected swatch gets a white outline.
func Toolbar(img *gocv.Mat, swatches []Swatch, height int, selected string) {
	gocv.Rectangle(img, image.Rect(0, 0, img.Cols(), height), color.RGBA{40, 40, 40, 255}, -1)
	for _, s := range swatches {
		r := image.Rect(s.MinX, 10, s.MaxX, height-10)
		gocv.Rectangle(img, r, s.Color, -1)
		if s.Name == selected {
			gocv.Rectangle(img, r.Inset(-4), White, 3)
		}
		gocv.PutText(img, s.Name, image.Pt(s.MinX+10, height-20), Font, 0.6, contrast(s.Color), 2)
	}
}

// contrast picks black or white text for a background colour.
func contrast(bg color.RGBA) color.RGBA {
	luma := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if luma > 128 {
		return Black
	}
	return White
}

// Marker draws a filled dot.
func Marker(img *gocv.Mat, at image.Point, radius int, c color.RGBA) {
	gocv.Circle(img, at, radius, c, -1)
}

// Percent formats a 0..1 score as "NN%".
func Percent(score float64) string {
	return fmt.Sprintf("%d%%", int(score*100+0.5))
}
