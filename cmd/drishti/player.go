package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/overlay"
)

// runPlayer plays a video file. SPACE pauses, n steps one frame while
// paused, ESC or q quits. Playback ends with the file.
func runPlayer(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("player", flag.ExitOnError)
	start := fs.Int("start", 0, "first frame to show")
	fs.Parse(args)
	if fs.NArg() < 1 {
		return errors.New("usage: drishti player [-start n] <video>")
	}

	video := capture.NewVideoFile(fs.Arg(0))
	if err := video.Open(); err != nil {
		return err
	}
	defer video.Close()
	if *start > 0 {
		if err := video.Seek(*start); err != nil {
			return err
		}
	}
	zap.L().Info("playing video", zap.String("path", fs.Arg(0)), zap.Int("frames", video.FrameCount()))

	window := gocv.NewWindow("player")
	defer window.Close()

	var (
		fps     overlay.FPSCounter
		current *gocv.Mat
		paused  bool
		step    bool
	)
	defer func() {
		if current != nil {
			current.Close()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if !paused || step || current == nil {
			frame, err := video.ReadFrame()
			if errors.Is(err, capture.ErrEndOfStream) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read frame: %w", err)
			}
			if current != nil {
				current.Close()
			}
			current = frame
			step = false
			fps.Tick(now())
		}

		shown := current.Clone()
		overlay.Label(&shown, fps.Label(), image.Pt(10, 30), overlay.Green)
		overlay.SmallLabel(&shown, fmt.Sprintf("frame %d/%d", video.Position(), video.FrameCount()), image.Pt(10, 60), overlay.White)
		overlay.SmallLabel(&shown, "Press SPACE to pause/resume | ESC to quit", image.Pt(10, shown.Rows()-20), overlay.White)
		if paused {
			overlay.Label(&shown, "PAUSED", image.Pt(shown.Cols()-140, 30), overlay.Yellow)
		}
		window.IMShow(shown)
		shown.Close()

		delay := 1
		if fps := video.FPS(); fps > 0 {
			delay = max(1, 1000/fps)
		}
		switch window.WaitKey(delay) {
		case keyEsc, 'q':
			return nil
		case keySpace:
			paused = !paused
		case 'n':
			step = paused
		}
	}
}
