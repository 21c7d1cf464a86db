package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/config"
)

// DefaultPSM treats the image as a single uniform block of text.
const DefaultPSM = 6

var (
	// ErrTesseractNotFound means no tesseract installation could be located.
	ErrTesseractNotFound = errors.New("ocr: tesseract not found")
	// ErrEmptyRegion is returned for a crop rectangle with no area inside the image.
	ErrEmptyRegion = errors.New("ocr: region is empty")
)

// Windows installs that are not usually on PATH.
var windowsCandidates = []string{
	`C:\Program Files\Tesseract-OCR\tesseract.exe`,
	`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
}

// lookPath and statFile are replaced in tests.
var (
	lookPath = exec.LookPath
	statFile = os.Stat
)

// FindTesseract returns the path of the tesseract binary, checking PATH
// first and then the default Windows install locations.
func FindTesseract() (string, error) {
	if p, err := lookPath("tesseract"); err == nil {
		return p, nil
	}
	for _, p := range windowsCandidates {
		if info, err := statFile(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", ErrTesseractNotFound
}

// Bounds is a pixel rectangle in image coordinates.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func boundsOf(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Region is one recognised word.
type Region struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Bounds     Bounds  `json:"bounds"`
}

// Result is the outcome of one recognition.
type Result struct {
	Text    string   `json:"text"`
	Regions []Region `json:"regions"`
	Mode    Mode     `json:"mode"`
	// Processed is the preprocessed image as PNG.
	Processed []byte `json:"-"`
}

// Empty reports whether no text was recognised.
func (r *Result) Empty() bool {
	return r == nil || r.Text == ""
}

// Options override the engine defaults for one call.
type Options struct {
	Mode     Mode
	Language string
	PSM      int
}

// Engine runs Tesseract on gocv images.
type Engine struct {
	cfg config.OCRConfig
}

// NewEngine creates an engine from the OCR config section.
func NewEngine(cfg config.OCRConfig) *Engine {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.PSM == 0 {
		cfg.PSM = DefaultPSM
	}
	return &Engine{cfg: cfg}
}

// Check locates the tesseract installation, honouring the configured path.
func (e *Engine) Check() (string, error) {
	if e.cfg.TesseractPath != "" {
		if _, err := statFile(e.cfg.TesseractPath); err != nil {
			return "", fmt.Errorf("%w: %s", ErrTesseractNotFound, e.cfg.TesseractPath)
		}
		return e.cfg.TesseractPath, nil
	}
	return FindTesseract()
}

func (e *Engine) resolve(opts Options) (Options, error) {
	if opts.Mode == "" {
		m, err := ParseMode(e.cfg.Mode)
		if err != nil {
			return opts, err
		}
		opts.Mode = m
	}
	if opts.Language == "" {
		opts.Language = e.cfg.Language
	}
	if opts.PSM == 0 {
		opts.PSM = e.cfg.PSM
	}
	return opts, nil
}

// Extract preprocesses img and recognises its text. img is not modified.
func (e *Engine) Extract(ctx context.Context, img gocv.Mat, opts Options) (*Result, error) {
	opts, err := e.resolve(opts)
	if err != nil {
		return nil, err
	}

	processed, err := Preprocess(img, opts.Mode)
	if err != nil {
		return nil, err
	}
	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	processed.Close()
	if err != nil {
		return nil, fmt.Errorf("encode preprocessed image: %w", err)
	}
	png := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		res, err := e.recognise(png, opts)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		// libtesseract cannot be interrupted; the goroutine finishes on its own.
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		out.res.Mode = opts.Mode
		out.res.Processed = png
		zap.L().Debug("ocr finished",
			zap.String("mode", string(opts.Mode)),
			zap.Int("chars", len(out.res.Text)),
			zap.Int("words", len(out.res.Regions)),
			zap.Duration("took", time.Since(start)))
		return out.res, nil
	}
}

func (e *Engine) recognise(png []byte, opts Options) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if e.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.cfg.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(opts.Language); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PSM)); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("recognise: %w", err)
	}

	res := &Result{Text: strings.TrimSpace(text)}
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		zap.L().Debug("word boxes unavailable", zap.Error(err))
		return res, nil
	}
	res.Regions = make([]Region, 0, len(boxes))
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		res.Regions = append(res.Regions, Region{
			Text:       b.Word,
			Confidence: b.Confidence / 100,
			Bounds:     boundsOf(b.Box),
		})
	}
	return res, nil
}

// ExtractImage converts img to a Mat and runs Extract.
func (e *Engine) ExtractImage(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()
	return e.Extract(ctx, mat, opts)
}

// ExtractRegion recognises the text inside rect and reports word boxes in
// the coordinates of img. rect is clipped to the image.
func (e *Engine) ExtractRegion(ctx context.Context, img image.Image, rect image.Rectangle, opts Options) (*Result, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return nil, ErrEmptyRegion
	}

	cropped := imaging.Crop(img, rect)
	res, err := e.ExtractImage(ctx, cropped, opts)
	if err != nil {
		return nil, err
	}
	OffsetRegions(res.Regions, rect.Min)
	return res, nil
}

// OffsetRegions shifts every region by off.
func OffsetRegions(regions []Region, off image.Point) {
	for i := range regions {
		regions[i].Bounds.X1 += off.X
		regions[i].Bounds.Y1 += off.Y
		regions[i].Bounds.X2 += off.X
		regions[i].Bounds.Y2 += off.Y
	}
}

// Fit downscales img so neither side exceeds maxDim. Smaller images are
// returned unchanged.
func Fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}
