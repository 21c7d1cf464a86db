// Package ocr extracts text from camera frames and uploaded images with
// Tesseract.
//
// Images are first reduced to a single channel by one of the Preprocess
// modes, then handed to libtesseract through gosseract.
package ocr

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// Mode selects how an image is cleaned up before recognition.
type Mode string

const (
	// ModeThresh binarises with Otsu's threshold.
	ModeThresh Mode = "thresh"
	// ModeAdaptive binarises with a Gaussian adaptive threshold.
	ModeAdaptive Mode = "adaptive"
	// ModeSmooth applies a bilateral filter, keeping edges sharp.
	ModeSmooth Mode = "smooth"
	// ModeGray only converts to grayscale.
	ModeGray Mode = "gray"
)

// Adaptive threshold and bilateral filter parameters.
const (
	AdaptiveBlockSize = 11
	AdaptiveC         = 2
	BilateralDiameter = 9
	BilateralSigma    = 75
)

// ErrUnknownMode is returned by ParseMode for an unrecognised name.
var ErrUnknownMode = errors.New("ocr: unknown preprocess mode")

// Modes lists every mode in the order forms present them.
func Modes() []Mode {
	return []Mode{ModeThresh, ModeAdaptive, ModeSmooth, ModeGray}
}

// ParseMode maps a form value to a Mode. An empty string is ModeThresh.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeThresh, nil
	}
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Preprocess returns a new single channel Mat prepared for recognition.
// src may be BGR, BGRA or already grayscale; it is not modified. The
// caller owns the returned Mat.
func Preprocess(src gocv.Mat, mode Mode) (gocv.Mat, error) {
	if src.Empty() {
		return gocv.NewMat(), errors.New("ocr: empty image")
	}

	gray := gocv.NewMat()
	switch src.Channels() {
	case 1:
		src.CopyTo(&gray)
	case 4:
		gocv.CvtColor(src, &gray, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	}

	out := gocv.NewMat()
	switch mode {
	case ModeThresh, "":
		gocv.Threshold(gray, &out, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	case ModeAdaptive:
		gocv.AdaptiveThreshold(gray, &out, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, AdaptiveBlockSize, AdaptiveC)
	case ModeSmooth:
		gocv.BilateralFilter(gray, &out, BilateralDiameter, BilateralSigma, BilateralSigma)
	case ModeGray:
		out.Close()
		return gray, nil
	default:
		gray.Close()
		out.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
	gray.Close()
	return out, nil
}
