package paint

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/gesture"
	"github.com/ayusman/drishti/internal/overlay"
)

// Mode selects how hand landmarks become strokes.
type Mode string

const (
	// ModeBasic draws while only the index finger is up and clears when
	// all four fingers are up.
	ModeBasic Mode = "basic"
	// ModeAirbrush adds a colour toolbar and an eraser.
	ModeAirbrush Mode = "airbrush"
	// ModePinch draws while thumb and index tips touch.
	ModePinch Mode = "pinch"
	// ModeCursor draws a tapering trail behind the wrist.
	ModeCursor Mode = "cursor"
	// ModeFaceDraw draws a fingertip trail restricted to detected faces.
	ModeFaceDraw Mode = "facedraw"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeBasic, ModeAirbrush, ModePinch, ModeCursor, ModeFaceDraw:
		return true
	}
	return false
}

// Action is what a Step decided to do.
type Action int

const (
	ActionIdle Action = iota
	ActionDraw
	ActionSelect
	ActionClear
	ActionTrack
)

func (a Action) String() string {
	switch a {
	case ActionIdle:
		return "idle"
	case ActionDraw:
		return "draw"
	case ActionSelect:
		return "select"
	case ActionClear:
		return "clear"
	case ActionTrack:
		return "track"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Update is the outcome of one Step.
type Update struct {
	Action   Action
	Strokes  []Stroke
	Selected string
	Tip      image.Point
	Fingers  gesture.Fingers
}

// Options configures a Painter.
type Options struct {
	Mode            Mode
	Color           color.RGBA
	BrushThickness  int
	EraserThickness int
	PinchThreshold  float64
	SelectBandY     int
	Palette         []overlay.Swatch
	Eraser          string
	TrailLength     int
}

// BasicBrushThickness is the stroke width of the basic painter.
const BasicBrushThickness = 8

// DefaultOptions returns the stock settings of each drawing demo.
func DefaultOptions(mode Mode) Options {
	return OptionsFromConfig(mode, config.Default().Painter)
}

// OptionsFromConfig builds painter options from the painter config section.
func OptionsFromConfig(mode Mode, cfg config.PainterConfig) Options {
	opts := Options{
		Mode:            mode,
		BrushThickness:  cfg.BrushThickness,
		EraserThickness: cfg.EraserThickness,
		PinchThreshold:  cfg.PinchThreshold,
		SelectBandY:     cfg.SelectBandY,
		Eraser:          "eraser",
		TrailLength:     cfg.CursorTrail,
	}
	for _, p := range cfg.Palette {
		opts.Palette = append(opts.Palette, overlay.Swatch{
			Name:  p.Name,
			Color: p.Color.MustRGBA(),
			MinX:  p.MinX,
			MaxX:  p.MaxX,
		})
	}

	switch mode {
	case ModeBasic:
		opts.Color = overlay.Magenta
		opts.BrushThickness = BasicBrushThickness
	case ModeAirbrush:
		opts.Color = overlay.Magenta
		if len(opts.Palette) > 0 {
			opts.Color = opts.Palette[0].Color
		}
	case ModePinch:
		opts.Color = overlay.Blue
		opts.BrushThickness = 5
	case ModeCursor:
		opts.Color = overlay.Red
		opts.BrushThickness = BasicBrushThickness
	case ModeFaceDraw:
		opts.Color = overlay.Green
		opts.BrushThickness = BasicBrushThickness
	}
	return opts
}

// Painter turns one hand per frame into strokes. It is not safe for
// concurrent use.
type Painter struct {
	opts     Options
	brush    Brush
	color    color.RGBA
	selected string
	trail    *gesture.Trail
	faces    []image.Rectangle
}

// New creates a painter. An unknown mode falls back to ModeBasic.
func New(opts Options) *Painter {
	if !opts.Mode.Valid() {
		opts.Mode = ModeBasic
	}
	if opts.TrailLength <= 0 {
		opts.TrailLength = 512
	}
	p := &Painter{
		opts:  opts,
		color: opts.Color,
		trail: gesture.NewTrail(opts.TrailLength),
	}
	for _, s := range opts.Palette {
		if s.Color == opts.Color {
			p.selected = s.Name
			break
		}
	}
	return p
}

// Mode returns the painter mode.
func (p *Painter) Mode() Mode { return p.opts.Mode }

// Color returns the current stroke colour.
func (p *Painter) Color() color.RGBA { return p.color }

// Selected returns the name of the selected swatch, if any.
func (p *Painter) Selected() string { return p.selected }

// Palette returns the toolbar swatches.
func (p *Painter) Palette() []overlay.Swatch { return p.opts.Palette }

// Trail returns the wrist or fingertip trail of the trail modes.
func (p *Painter) Trail() *gesture.Trail { return p.trail }

// SetFaces sets the face boxes that limit ModeFaceDraw.
func (p *Painter) SetFaces(faces []image.Rectangle) {
	p.faces = faces
}

// Reset lifts the pen and drops the trail.
func (p *Painter) Reset() {
	p.brush.Lift()
	p.trail.Clear()
}

// Step consumes the first hand of a w x h frame. A nil hand lifts the pen.
func (p *Painter) Step(hand *detector.HandLandmarks, w, h int) Update {
	if hand == nil {
		p.brush.Lift()
		return Update{Action: ActionIdle, Selected: p.selected}
	}

	var u Update
	switch p.opts.Mode {
	case ModeAirbrush:
		u = p.stepAirbrush(hand, w, h)
	case ModePinch:
		u = p.stepPinch(hand, w, h)
	case ModeCursor:
		u = p.stepCursor(hand, w, h)
	case ModeFaceDraw:
		u = p.stepFaceDraw(hand, w, h)
	default:
		u = p.stepBasic(hand, w, h)
	}
	u.Selected = p.selected
	return u
}

func (p *Painter) stepBasic(hand *detector.HandLandmarks, w, h int) Update {
	f := gesture.FingersUp(hand, gesture.ThumbIgnored)
	tip := detector.ToPixel(hand.Points[detector.IndexTip], w, h)
	u := Update{Tip: tip, Fingers: f}

	if f.AllFingers() {
		p.brush.Lift()
		u.Action = ActionClear
		return u
	}
	if f[gesture.Index] && !f[gesture.Middle] {
		u.Action = ActionDraw
		u.Strokes = []Stroke{p.brush.To(tip, p.color, p.opts.BrushThickness)}
		return u
	}
	p.brush.Lift()
	return u
}

func (p *Painter) stepAirbrush(hand *detector.HandLandmarks, w, h int) Update {
	f := gesture.FingersUp(hand, gesture.ThumbMirrored)
	tip := detector.ToPixel(hand.Points[detector.IndexTip], w, h)
	u := Update{Tip: tip, Fingers: f}

	// Selection and clearing are independent: an open palm over the
	// toolbar picks the swatch and clears.
	twoUp := f[gesture.Index] && f[gesture.Middle]
	if twoUp && tip.Y < p.opts.SelectBandY {
		p.selectAt(tip.X)
	}

	switch {
	case f.All():
		p.brush.Lift()
		u.Action = ActionClear
	case twoUp:
		p.brush.Lift()
		u.Action = ActionSelect
	case f[gesture.Index]:
		thickness := p.opts.BrushThickness
		if p.selected != "" && p.selected == p.opts.Eraser {
			thickness = p.opts.EraserThickness
		}
		u.Action = ActionDraw
		u.Strokes = []Stroke{p.brush.To(tip, p.color, thickness)}
	default:
		p.brush.Lift()
	}
	return u
}

// selectAt picks the toolbar swatch under x, if any.
func (p *Painter) selectAt(x int) {
	for _, s := range p.opts.Palette {
		if s.Contains(x) {
			p.color = s.Color
			p.selected = s.Name
			return
		}
	}
}

func (p *Painter) stepPinch(hand *detector.HandLandmarks, w, h int) Update {
	tip := detector.ToPixel(hand.Points[detector.IndexTip], w, h)
	thumb := detector.ToPixel(hand.Points[detector.ThumbTip], w, h)
	u := Update{Tip: tip}

	if gesture.IsPinch(gesture.PinchDistance(tip, thumb), p.opts.PinchThreshold) {
		u.Action = ActionDraw
		u.Strokes = []Stroke{p.brush.To(tip, p.color, p.opts.BrushThickness)}
		return u
	}
	p.brush.Lift()
	return u
}

func (p *Painter) stepCursor(hand *detector.HandLandmarks, w, h int) Update {
	wrist := detector.ToPixel(hand.Points[detector.Wrist], w, h)
	p.trail.Push(wrist)
	return Update{Action: ActionTrack, Tip: wrist, Strokes: p.trailStrokes(nil)}
}

func (p *Painter) stepFaceDraw(hand *detector.HandLandmarks, w, h int) Update {
	tip := detector.ToPixel(hand.Points[detector.IndexTip], w, h)
	if len(p.faces) == 0 {
		return Update{Action: ActionIdle, Tip: tip}
	}
	if inAny(tip, p.faces) {
		p.trail.Push(tip)
	}
	return Update{Action: ActionTrack, Tip: tip, Strokes: p.trailStrokes(p.faces)}
}

// trailStrokes renders the trail, keeping only segments whose older end
// lies inside clip when clip is non-nil.
func (p *Painter) trailStrokes(clip []image.Rectangle) []Stroke {
	segs := p.trail.Segments(p.opts.BrushThickness)
	out := make([]Stroke, 0, len(segs))
	for _, s := range segs {
		if clip != nil && !inAny(s.To, clip) {
			continue
		}
		out = append(out, Stroke{From: s.From, To: s.To, Color: p.color, Thickness: s.Thickness})
	}
	return out
}

// inAny reports whether pt lies inside any box, edges included.
func inAny(pt image.Point, boxes []image.Rectangle) bool {
	for _, b := range boxes {
		if pt.X >= b.Min.X && pt.X <= b.Max.X && pt.Y >= b.Min.Y && pt.Y <= b.Max.Y {
			return true
		}
	}
	return false
}
