package api

import (
	"context"
	"encoding/base64"
	"errors"
	"image"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/ayusman/drishti/internal/ocr"
)

// TextExtractor recognises text in an image.
type TextExtractor interface {
	ExtractImage(ctx context.Context, img image.Image, opts ocr.Options) (*ocr.Result, error)
}

// defaultMaxPixels bounds decoded uploads when no maximum dimension is set.
const defaultMaxPixels = 40_000_000

// OCRHandler handles image uploads for text recognition.
type OCRHandler struct {
	engine       TextExtractor
	maxBytes     int64
	maxDimension int
	maxPixels    int64
}

// NewOCRHandler creates an OCRHandler. Uploads larger than maxUploadMB are
// rejected; images larger than maxDimension on either side are downscaled.
// Images decoding to more than three times maxDimension on each side are
// rejected before decoding.
func NewOCRHandler(engine TextExtractor, maxUploadMB, maxDimension int) *OCRHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	maxPixels := int64(defaultMaxPixels)
	if maxDimension > 0 {
		side := int64(maxDimension) * 3
		maxPixels = side * side
	}
	return &OCRHandler{
		engine:       engine,
		maxBytes:     int64(maxUploadMB) << 20,
		maxDimension: maxDimension,
		maxPixels:    maxPixels,
	}
}

type ocrResponse struct {
	Text    string       `json:"text"`
	Found   bool         `json:"found"`
	Mode    ocr.Mode     `json:"mode"`
	Regions []ocr.Region `json:"regions"`
	Image   string       `json:"image,omitempty"`
}

// ServeHTTP handles POST /api/ocr with a multipart "image" file and an
// optional "mode" field. With ?format=text the text is returned as a
// plain text download.
func (h *OCRHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	mode, err := ocr.ParseMode(r.FormValue("mode"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown preprocess mode")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported image")
		return
	}
	if int64(cfg.Width)*int64(cfg.Height) > h.maxPixels {
		writeError(w, http.StatusRequestEntityTooLarge, "Image dimensions too large")
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported image")
		return
	}
	img = ocr.Fit(img, h.maxDimension)

	res, err := h.engine.ExtractImage(r.Context(), img, ocr.Options{Mode: mode})
	if err != nil {
		zap.L().Warn("ocr failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Text recognition failed")
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="recognized_text.txt"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(res.Text))
		return
	}

	regions := res.Regions
	if regions == nil {
		regions = []ocr.Region{}
	}
	resp := ocrResponse{
		Text:    res.Text,
		Found:   !res.Empty(),
		Mode:    res.Mode,
		Regions: regions,
	}
	if len(res.Processed) > 0 {
		resp.Image = base64.StdEncoding.EncodeToString(res.Processed)
	}
	writeJSON(w, http.StatusOK, resp)
}
