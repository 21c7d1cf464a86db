package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io/fs"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/config"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeThresh, m)

	for _, want := range Modes() {
		got, err := ParseMode(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err = ParseMode("sepia")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

// textLikeFrame is a light frame with a dark bar, roughly what a scanned
// line looks like.
func textLikeFrame(t *testing.T) gocv.Mat {
	t.Helper()
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(220, 220, 220, 0), 40, 80, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&m, image.Rect(10, 15, 70, 25), color.RGBA{R: 20, G: 20, B: 20, A: 255}, -1)
	return m
}

func TestPreprocess_Modes(t *testing.T) {
	src := textLikeFrame(t)
	defer src.Close()

	for _, mode := range Modes() {
		t.Run(string(mode), func(t *testing.T) {
			out, err := Preprocess(src, mode)
			require.NoError(t, err)
			defer out.Close()

			assert.Equal(t, 1, out.Channels())
			assert.Equal(t, src.Rows(), out.Rows())
			assert.Equal(t, src.Cols(), out.Cols())
		})
	}
	// The source is untouched.
	assert.Equal(t, 3, src.Channels())
}

func TestPreprocess_ThreshIsBinary(t *testing.T) {
	src := textLikeFrame(t)
	defer src.Close()

	out, err := Preprocess(src, ModeThresh)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, uint8(0), out.GetUCharAt(20, 40))
	assert.Equal(t, uint8(255), out.GetUCharAt(5, 5))
}

func TestPreprocess_GrayInput(t *testing.T) {
	src := gocv.Zeros(10, 10, gocv.MatTypeCV8UC1)
	defer src.Close()

	out, err := Preprocess(src, ModeGray)
	require.NoError(t, err)
	defer out.Close()
	assert.Equal(t, 1, out.Channels())
}

func TestPreprocess_Errors(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	_, err := Preprocess(empty, ModeGray)
	assert.Error(t, err)

	src := textLikeFrame(t)
	defer src.Close()
	_, err = Preprocess(src, Mode("sepia"))
	assert.ErrorIs(t, err, ErrUnknownMode)
}

type fakeInfo struct{ fs.FileInfo }

func (fakeInfo) IsDir() bool { return false }

func TestFindTesseract(t *testing.T) {
	origLook, origStat := lookPath, statFile
	t.Cleanup(func() { lookPath, statFile = origLook, origStat })

	lookPath = func(string) (string, error) { return "/usr/bin/tesseract", nil }
	p, err := FindTesseract()
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/tesseract", p)

	lookPath = func(string) (string, error) { return "", errors.New("not on PATH") }
	statFile = func(name string) (os.FileInfo, error) {
		if name == windowsCandidates[1] {
			return fakeInfo{}, nil
		}
		return nil, os.ErrNotExist
	}
	p, err = FindTesseract()
	require.NoError(t, err)
	assert.Equal(t, windowsCandidates[1], p)

	statFile = func(string) (os.FileInfo, error) { return nil, os.ErrNotExist }
	_, err = FindTesseract()
	assert.ErrorIs(t, err, ErrTesseractNotFound)
}

func TestEngine_CheckConfiguredPath(t *testing.T) {
	e := NewEngine(config.OCRConfig{TesseractPath: "/definitely/missing/tesseract"})
	_, err := e.Check()
	assert.ErrorIs(t, err, ErrTesseractNotFound)
}

func TestEngine_ResolveDefaults(t *testing.T) {
	e := NewEngine(config.OCRConfig{Mode: "adaptive"})
	opts, err := e.resolve(Options{})
	require.NoError(t, err)
	assert.Equal(t, ModeAdaptive, opts.Mode)
	assert.Equal(t, "eng", opts.Language)
	assert.Equal(t, DefaultPSM, opts.PSM)

	opts, err = e.resolve(Options{Mode: ModeSmooth, Language: "deu", PSM: 3})
	require.NoError(t, err)
	assert.Equal(t, Options{Mode: ModeSmooth, Language: "deu", PSM: 3}, opts)
}

func TestOffsetRegions(t *testing.T) {
	regions := []Region{{Text: "hi", Bounds: Bounds{X1: 1, Y1: 2, X2: 3, Y2: 4}}}
	OffsetRegions(regions, image.Pt(10, 20))
	assert.Equal(t, Bounds{X1: 11, Y1: 22, X2: 13, Y2: 24}, regions[0].Bounds)
}

func TestFit(t *testing.T) {
	small := image.NewRGBA(image.Rect(0, 0, 100, 50))
	assert.Same(t, image.Image(small), Fit(small, 200))

	big := image.NewRGBA(image.Rect(0, 0, 400, 100))
	out := Fit(big, 200)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())
}

func TestExtractRegion_EmptyRect(t *testing.T) {
	e := NewEngine(config.OCRConfig{})
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	_, err := e.ExtractRegion(context.Background(), img, image.Rect(20, 20, 30, 30), Options{})
	assert.ErrorIs(t, err, ErrEmptyRegion)
}

func TestExtract_Canceled(t *testing.T) {
	e := NewEngine(config.OCRConfig{})
	src := textLikeFrame(t)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Extract(ctx, src, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_RecognisesText(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping tesseract test in short mode")
	}
	if _, err := FindTesseract(); err != nil {
		t.Skip("tesseract not installed")
	}

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 120, 480, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.PutText(&img, "HELLO OCR", image.Pt(20, 80), gocv.FontHersheySimplex, 2, color.RGBA{A: 255}, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := NewEngine(config.OCRConfig{}).Extract(ctx, img, Options{Mode: ModeThresh})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "HELLO")
	assert.NotEmpty(t, res.Processed)
	for _, r := range res.Regions {
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}
}
