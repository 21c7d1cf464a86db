package segment

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/overlay"
)

func TestModeForKey(t *testing.T) {
	tests := []struct {
		key  rune
		want Mode
	}{
		{'r', ModeRed},
		{'g', ModeGreen},
		{'b', ModeBlue},
		{'a', ModeNonWhite},
		{'o', ModeOriginal},
		{'h', ModeHSV},
	}
	for _, tt := range tests {
		got, ok := ModeForKey(int(tt.key))
		assert.True(t, ok, string(tt.key))
		assert.Equal(t, tt.want, got)
	}

	_, ok := ModeForKey('z')
	assert.False(t, ok)
}

func TestModeIsColor(t *testing.T) {
	assert.True(t, ModeRed.IsColor())
	assert.True(t, ModeNonWhite.IsColor())
	assert.False(t, ModeOriginal.IsColor())
	assert.False(t, ModeHSV.IsColor())
}

func TestDefaultRanges(t *testing.T) {
	r := DefaultRanges()
	assert.Equal(t, []string{"blue", "green", "non_white", "red"}, r.Names())
	require.Len(t, r["red"], 2, "red wraps around hue 0")
	assert.Equal(t, [3]uint8{170, 120, 70}, r["red"][1].Lower)
}

func TestHSV(t *testing.T) {
	assert.Equal(t, [3]uint8{0, 255, 255}, HSV(overlay.Red))
	assert.Equal(t, [3]uint8{60, 255, 255}, HSV(overlay.Green))
	assert.Equal(t, [3]uint8{120, 255, 255}, HSV(overlay.Blue))
	assert.Equal(t, [3]uint8{0, 0, 0}, HSV(overlay.Black))
}

func TestRangeAround(t *testing.T) {
	green := RangeAround(overlay.Green, 10, 50)
	require.Len(t, green, 1)
	assert.Equal(t, Range{Lower: [3]uint8{50, 50, 50}, Upper: [3]uint8{70, 255, 255}}, green[0])

	red := RangeAround(overlay.Red, 10, 70)
	require.Len(t, red, 2)
	assert.Equal(t, uint8(0), red[0].Lower[0])
	assert.Equal(t, uint8(10), red[0].Upper[0])
	assert.Equal(t, uint8(170), red[1].Lower[0])
	assert.Equal(t, uint8(180), red[1].Upper[0])
}

// halfFrame is a 20x10 frame, red on the left and green on the right.
func halfFrame() gocv.Mat {
	m := gocv.Zeros(10, 20, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&m, image.Rect(0, 0, 9, 9), overlay.Red, -1)
	gocv.Rectangle(&m, image.Rect(10, 0, 19, 9), overlay.Green, -1)
	return m
}

func TestApply_ColorModes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}
	frame := halfFrame()
	defer frame.Close()
	s := New(DefaultRanges())

	display, mask, err := s.Apply(frame, ModeRed)
	require.NoError(t, err)
	defer display.Close()
	defer mask.Close()

	assert.Equal(t, 100, gocv.CountNonZero(mask))
	assert.Equal(t, uint8(255), display.GetUCharAt(5, 2*3+2), "red kept")
	assert.Equal(t, uint8(0), display.GetUCharAt(5, 15*3+1), "green dropped")

	gdisplay, gmask, err := s.Apply(frame, ModeGreen)
	require.NoError(t, err)
	defer gdisplay.Close()
	defer gmask.Close()
	assert.Equal(t, 100, gocv.CountNonZero(gmask))
}

func TestApply_NonColorModes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}
	frame := halfFrame()
	defer frame.Close()
	s := New(DefaultRanges())

	for _, m := range []Mode{ModeOriginal, ModeHSV} {
		display, mask, err := s.Apply(frame, m)
		require.NoError(t, err)
		assert.True(t, mask.Empty())
		assert.Equal(t, frame.Rows(), display.Rows())
		display.Close()
		mask.Close()
	}

	_, _, err := s.Apply(frame, Mode("purple"))
	assert.ErrorIs(t, err, ErrUnknownColor)
}

func TestReplaceColor(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test in short mode")
	}
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 10, 10, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(0, 0, 4, 9), overlay.Black, -1)

	ReplaceColor(&img, DarkLower, DarkUpper, overlay.Red)

	assert.Equal(t, uint8(255), img.GetUCharAt(5, 2*3+2), "dark pixel turned red")
	assert.Equal(t, uint8(0), img.GetUCharAt(5, 2*3))
	assert.Equal(t, uint8(200), img.GetUCharAt(5, 8*3), "light pixel untouched")
}
