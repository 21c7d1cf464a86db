// Package segment isolates colours in camera frames with HSV range masks.
package segment

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/config"
)

// ErrUnknownColor is returned when a mode has no configured ranges.
var ErrUnknownColor = errors.New("no ranges for colour")

// Range is an inclusive OpenCV HSV range: H in 0..180, S and V in 0..255.
type Range struct {
	Lower [3]uint8
	Upper [3]uint8
}

// Ranges maps a colour name to the ranges whose union selects it.
type Ranges map[string][]Range

// RangesFromConfig converts the segment config section.
func RangesFromConfig(cfg config.SegmentConfig) Ranges {
	out := make(Ranges, len(cfg.Ranges))
	for name, rs := range cfg.Ranges {
		for _, r := range rs {
			out[name] = append(out[name], Range{Lower: r.Lower, Upper: r.Upper})
		}
	}
	return out
}

// DefaultRanges returns the built-in red, green, blue and non_white ranges.
func DefaultRanges() Ranges {
	return RangesFromConfig(config.Default().Segment)
}

// Names returns the configured colour names in sorted order.
func (r Ranges) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// HSV converts c to OpenCV's 8-bit HSV scale.
func HSV(c color.RGBA) [3]uint8 {
	h, s, v := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hsv()
	return [3]uint8{uint8(h/2 + 0.5), uint8(s*255 + 0.5), uint8(v*255 + 0.5)}
}

// RangeAround builds ranges centred on c's hue, hueTol wide on each side,
// accepting any saturation and value from minSV up. Hues near 0 wrap
// around and produce two ranges.
func RangeAround(c color.RGBA, hueTol, minSV uint8) []Range {
	h := int(HSV(c)[0])
	lo, hi := h-int(hueTol), h+int(hueTol)

	mk := func(a, b int) Range {
		return Range{Lower: [3]uint8{uint8(a), minSV, minSV}, Upper: [3]uint8{uint8(b), 255, 255}}
	}
	switch {
	case lo < 0:
		return []Range{mk(0, hi), mk(180+lo, 180)}
	case hi > 180:
		return []Range{mk(lo, 180), mk(0, hi-180)}
	}
	return []Range{mk(lo, hi)}
}

// Mask returns the union of the InRange masks of ranges over an HSV
// frame. The caller closes the result.
func Mask(hsv gocv.Mat, ranges []Range) gocv.Mat {
	mask := gocv.Zeros(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	part := gocv.NewMat()
	defer part.Close()

	for _, r := range ranges {
		lower := gocv.NewScalar(float64(r.Lower[0]), float64(r.Lower[1]), float64(r.Lower[2]), 0)
		upper := gocv.NewScalar(float64(r.Upper[0]), float64(r.Upper[1]), float64(r.Upper[2]), 0)
		gocv.InRangeWithScalar(hsv, lower, upper, &part)
		gocv.BitwiseOr(mask, part, &mask)
	}
	return mask
}

// Segmenter applies display modes to frames.
type Segmenter struct {
	ranges Ranges
}

// New creates a segmenter over ranges.
func New(ranges Ranges) *Segmenter {
	return &Segmenter{ranges: ranges}
}

// Ranges returns the configured ranges.
func (s *Segmenter) Ranges() Ranges {
	return s.ranges
}

// Apply renders frame in mode. For colour modes the display keeps only
// masked pixels and mask is returned; otherwise mask is empty. The caller
// closes both Mats.
func (s *Segmenter) Apply(frame gocv.Mat, mode Mode) (display, mask gocv.Mat, err error) {
	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	switch mode {
	case ModeOriginal:
		return frame.Clone(), gocv.NewMat(), nil
	case ModeHSV:
		display = gocv.NewMat()
		gocv.CvtColor(hsv, &display, gocv.ColorHSVToBGR)
		return display, gocv.NewMat(), nil
	}

	ranges, ok := s.ranges[string(mode)]
	if !ok || len(ranges) == 0 {
		return gocv.Mat{}, gocv.Mat{}, fmt.Errorf("%w: %s", ErrUnknownColor, mode)
	}
	mask = Mask(hsv, ranges)
	display = gocv.Zeros(frame.Rows(), frame.Cols(), frame.Type())
	gocv.BitwiseAndWithMask(frame, frame, &display, mask)
	return display, mask, nil
}

// ReplaceColor paints every BGR pixel of img inside [lower, upper] with c.
func ReplaceColor(img *gocv.Mat, lower, upper [3]uint8, c color.RGBA) {
	mask := gocv.NewMat()
	defer mask.Close()
	lb := gocv.NewScalar(float64(lower[0]), float64(lower[1]), float64(lower[2]), 0)
	ub := gocv.NewScalar(float64(upper[0]), float64(upper[1]), float64(upper[2]), 0)
	gocv.InRangeWithScalar(*img, lb, ub, &mask)

	solid := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0), img.Rows(), img.Cols(), img.Type())
	defer solid.Close()

	colored := gocv.Zeros(img.Rows(), img.Cols(), img.Type())
	defer colored.Close()
	gocv.BitwiseAndWithMask(solid, solid, &colored, mask)

	gocv.BitwiseOr(*img, colored, img)
}

// Dark pixels recoloured by the pose colour demo, in BGR.
var (
	DarkLower = [3]uint8{0, 0, 0}
	DarkUpper = [3]uint8{50, 50, 50}
)
