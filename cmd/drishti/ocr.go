package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/ocr"
	"github.com/ayusman/drishti/internal/store"
)

// cameraWarmup frames are dropped before a snapshot so exposure settles.
const cameraWarmup = 10

// runOCR prints the text of an image file, or of one camera snapshot when
// no file is given.
func runOCR(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("ocr", flag.ExitOnError)
	src := sourceFlags(fs, e.cfg)
	mode := fs.String("mode", e.cfg.OCR.Mode, "preprocess mode: thresh, adaptive, smooth, gray")
	lang := fs.String("lang", e.cfg.OCR.Language, "tesseract language")
	psm := fs.Int("psm", e.cfg.OCR.PSM, "tesseract page segmentation mode")
	save := fs.Bool("save", false, "save the preprocessed image")
	words := fs.Bool("words", false, "print every word with its confidence and box")
	fs.Parse(args)

	m, err := ocr.ParseMode(*mode)
	if err != nil {
		return err
	}

	engine := ocr.NewEngine(e.cfg.OCR)
	if _, err := engine.Check(); err != nil {
		return err
	}

	var img gocv.Mat
	if fs.NArg() > 0 {
		img = gocv.IMRead(fs.Arg(0), gocv.IMReadColor)
		if img.Empty() {
			img.Close()
			return fmt.Errorf("read image %s: unsupported or missing file", fs.Arg(0))
		}
	} else {
		if img, err = snapshot(src, e); err != nil {
			return err
		}
	}
	defer img.Close()

	res, err := engine.Extract(ctx, img, ocr.Options{Mode: m, Language: *lang, PSM: *psm})
	if err != nil {
		return err
	}

	if *save {
		processed, err := gocv.IMDecode(res.Processed, gocv.IMReadGrayScale)
		if err != nil {
			return fmt.Errorf("decode preprocessed image: %w", err)
		}
		defer processed.Close()
		if _, err := e.Saver().SaveMat(processed, "ocr_"+string(m), store.CaptureOCR); err != nil {
			zap.L().Warn("save preprocessed image", zap.Error(err))
		}
	}

	if res.Empty() {
		fmt.Fprintln(os.Stderr, "No text found.")
		return nil
	}
	fmt.Println(strings.TrimSpace(res.Text))
	if *words {
		for _, r := range res.Regions {
			fmt.Println(wordLine(r))
		}
	}
	return nil
}

// wordLine formats a recognised word with its confidence as a percentage.
func wordLine(r ocr.Region) string {
	return fmt.Sprintf("%-20s %5.1f%%  (%d,%d)-(%d,%d)", r.Text, r.Confidence*100, r.Bounds.X1, r.Bounds.Y1, r.Bounds.X2, r.Bounds.Y2)
}

// snapshot grabs one frame from the camera after a short warm up.
func snapshot(src source, e *env) (gocv.Mat, error) {
	cam, err := src.open(e.cfg)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer cam.Close()

	var last *gocv.Mat
	for i := 0; i < cameraWarmup; i++ {
		frame, err := cam.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			break
		}
		if err != nil {
			if last != nil {
				last.Close()
			}
			return gocv.Mat{}, fmt.Errorf("read frame: %w", err)
		}
		if last != nil {
			last.Close()
		}
		last = frame
	}
	if last == nil {
		return gocv.Mat{}, errors.New("camera produced no frames")
	}
	return *last, nil
}
