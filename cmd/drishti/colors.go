package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/segment"
	"github.com/ayusman/drishti/internal/store"
)

// runColors shows the camera through an HSV colour mask. r, g, b and a pick
// a mask, o and h show the original and HSV views, s saves the mask.
func runColors(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("colors", flag.ExitOnError)
	src := sourceFlags(fs, e.cfg)
	start := fs.String("mode", string(segment.ModeOriginal), "initial mode: original, hsv, red, green, blue, non_white")
	fs.Parse(args)

	seg := segment.New(segment.RangesFromConfig(e.cfg.Segment))
	mode := segment.Mode(*start)
	if _, ok := seg.Ranges()[string(mode)]; !ok && mode.IsColor() {
		return fmt.Errorf("%w: %s", segment.ErrUnknownColor, mode)
	}

	cam, err := src.open(e.cfg)
	if err != nil {
		return err
	}
	defer cam.Close()

	saver := e.Saver()
	mask := gocv.NewMat()
	defer mask.Close()
	hasMask := false

	l := &loop{
		title: "colors",
		cam:   cam,
		hud:   []string{"r g b a: colour masks | o original | h HSV | s saves mask"},
	}
	return l.run(ctx, func(img *gocv.Mat) error {
		display, m, err := seg.Apply(*img, mode)
		if err != nil {
			return err
		}
		defer display.Close()
		defer m.Close()

		display.CopyTo(img)
		hasMask = !m.Empty()
		if hasMask {
			m.CopyTo(&mask)
		}
		return nil
	}, func(key int, _ *gocv.Mat) {
		if next, ok := segment.ModeForKey(key); ok {
			mode = next
			zap.L().Info("colour mode", zap.String("mode", string(mode)))
			return
		}
		if key != 's' {
			return
		}
		if !hasMask {
			zap.L().Info("no mask to save in this mode", zap.String("mode", string(mode)))
			return
		}
		if _, err := saver.SaveMat(mask, "mask_"+string(mode), store.CaptureMask); err != nil {
			zap.L().Warn("save mask", zap.Error(err))
		}
	})
}
