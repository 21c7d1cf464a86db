package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"strings"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/gesture"
	"github.com/ayusman/drishti/internal/overlay"
	"github.com/ayusman/drishti/internal/paint"
	"github.com/ayusman/drishti/internal/plugin"
)

const (
	trailThickness = 10
	swipeThickness = 8
)

// firstHand returns the first detected hand or nil.
func firstHand(res *detector.Result) *detector.HandLandmarks {
	if res == nil || len(res.Hands) == 0 {
		return nil
	}
	return &res.Hands[0]
}

// runTrail draws a tapering trail behind the index fingertip.
func runTrail(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("trail", flag.ExitOnError)
	src := sourceFlags(fs, e.cfg)
	length := fs.Int("length", e.cfg.Swipe.TrailLength, "trail length in frames")
	fs.Parse(args)

	svc, err := e.Landmarker(detector.SolutionHands)
	if err != nil {
		return err
	}
	defer svc.Close()

	cam, err := src.open(e.cfg)
	if err != nil {
		return err
	}
	defer cam.Close()

	trail := gesture.NewTrail(*length)
	l := &loop{title: "trail", cam: cam, fpsAt: image.Pt(10, 30)}
	return l.run(ctx, func(img *gocv.Mat) error {
		res, err := svc.Process(img)
		if err != nil {
			return err
		}
		if hand := firstHand(res); hand != nil {
			overlay.DrawHand(img, hand)
			trail.Push(detector.ToPixel(hand.Points[detector.IndexTip], img.Cols(), img.Rows()))
		}
		overlay.DrawTrail(img, trail.Segments(trailThickness), overlay.Yellow)
		return nil
	}, func(key int, _ *gocv.Mat) {
		if key == 'c' {
			trail.Clear()
		}
	})
}

// keyPresser sends swipe presses to the configured keyboard plugin.
type keyPresser struct {
	plugin   *plugin.Plugin
	executor *plugin.Executor
}

func newKeyPresser(dir, name string, timeoutMs int) (*keyPresser, error) {
	m := plugin.NewManager(dir)
	if err := m.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	p, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	return &keyPresser{plugin: p, executor: plugin.NewExecutor(timeoutMs)}, nil
}

func (k *keyPresser) press(ctx context.Context, d gesture.Direction) {
	resp, err := k.executor.ExecuteContext(ctx, k.plugin, &plugin.Request{
		Action:  "press",
		Gesture: app.SwipeID(d),
		Config:  []byte("{}"),
	})
	switch {
	case err != nil:
		zap.L().Warn("key press failed", zap.String("direction", string(d)), zap.Error(err))
	case !resp.Success:
		zap.L().Warn("key press rejected", zap.String("direction", string(d)), zap.String("error", resp.Error))
	}
}

// runSwipe turns index fingertip swipes into arrow key presses.
func runSwipe(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("swipe", flag.ExitOnError)
	src := sourceFlags(fs, e.cfg)
	pluginDir := fs.String("plugins", pluginDir(e), "plugin directory")
	showTrail := fs.Bool("trail", true, "draw the fingertip trail")
	dryRun := fs.Bool("dry-run", false, "show swipes without pressing keys")
	fs.Parse(args)

	var presser *keyPresser
	if !*dryRun {
		var err error
		presser, err = newKeyPresser(*pluginDir, e.cfg.Swipe.Plugin, e.cfg.Server.PluginTimeoutMs)
		if err != nil {
			return fmt.Errorf("swipe plugin %q: %w", e.cfg.Swipe.Plugin, err)
		}
	}

	svc, err := e.Landmarker(detector.SolutionHands)
	if err != nil {
		return err
	}
	defer svc.Close()

	cam, err := src.open(e.cfg)
	if err != nil {
		return err
	}
	defer cam.Close()

	sw := e.cfg.Swipe
	tracker := gesture.NewSwipeTracker(gesture.SwipeOptions{
		Alpha:      sw.Alpha,
		ThresholdX: sw.ThresholdX,
		ThresholdY: sw.ThresholdY,
		Cooldown:   sw.Cooldown,
	})
	trail := gesture.NewTrail(sw.TrailLength)
	var fps overlay.FPSCounter
	last := gesture.SwipeNone

	l := &loop{
		title: "swipe",
		cam:   cam,
		hud: []string{
			"Gesture Controls: Swipe L/R/U/D to press arrow keys",
			"Press 'c' to clear trail (if enabled) | ESC or 'q' to quit",
		},
	}
	return l.run(ctx, func(img *gocv.Mat) error {
		fps.Tick(now())
		res, err := svc.Process(img)
		if err != nil {
			return err
		}

		hand := firstHand(res)
		if hand != nil {
			overlay.DrawHand(img, hand)
			if *showTrail {
				trail.Push(detector.ToPixel(hand.Points[detector.IndexTip], img.Cols(), img.Rows()))
			}
		}

		if d := tracker.Update(hand); tracker.Trigger(d, now()) {
			last = d
			zap.L().Debug("swipe", zap.String("direction", string(d)))
			if presser != nil {
				presser.press(ctx, d)
			}
		}

		if *showTrail {
			overlay.DrawTrail(img, trail.Segments(swipeThickness), overlay.Yellow)
		}
		if last != gesture.SwipeNone {
			overlay.Label(img, "Gesture: "+strings.ToUpper(string(last)), image.Pt(10, 100), overlay.Green)
		}
		overlay.Label(img, fps.Label(), image.Pt(10, 140), overlay.Green)
		return nil
	}, func(key int, _ *gocv.Mat) {
		if key == 'c' {
			trail.Clear()
		}
	})
}

// paintCommand builds the runner for one drawing mode.
func paintCommand(mode paint.Mode) func(context.Context, *env, []string) error {
	return func(ctx context.Context, e *env, args []string) error {
		return runPaint(ctx, e, args, mode)
	}
}

func runPaint(ctx context.Context, e *env, args []string, mode paint.Mode) error {
	fs := flag.NewFlagSet(string(mode), flag.ExitOnError)
	src := sourceFlags(fs, e.cfg)
	fs.Parse(args)

	var faces *detector.HaarFaceDetector
	if mode == paint.ModeFaceDraw {
		var err error
		if faces, err = e.Haar(); err != nil {
			return err
		}
		defer faces.Close()
	}

	svc, err := e.Landmarker(detector.SolutionHands)
	if err != nil {
		return err
	}
	defer svc.Close()

	cam, err := src.open(e.cfg)
	if err != nil {
		return err
	}
	defer cam.Close()

	painter := paint.New(paint.OptionsFromConfig(mode, e.cfg.Painter))
	saver := e.Saver()

	// Trail modes redraw their whole trail every frame; the others keep
	// strokes on a persistent canvas.
	trailMode := mode == paint.ModeCursor || mode == paint.ModeFaceDraw
	var canvas *paint.Canvas
	defer func() {
		if canvas != nil {
			canvas.Close()
		}
	}()

	hud := []string{"c clears | s saves | ESC or q quits"}
	if mode == paint.ModeAirbrush {
		hud = nil
	}

	l := &loop{title: string(mode), cam: cam, fpsAt: image.Pt(10, 30), hud: hud}
	if mode == paint.ModeAirbrush {
		l.fpsAt = image.Pt(10, e.cfg.Painter.ToolbarHeight+30)
	}
	return l.run(ctx, func(img *gocv.Mat) error {
		w, h := img.Cols(), img.Rows()
		if canvas == nil {
			canvas = paint.NewCanvas(w, h, overlay.Black)
		}

		if faces != nil {
			boxes := faces.Faces(img)
			painter.SetFaces(boxes)
			overlay.DrawRects(img, boxes, overlay.Green)
		}

		res, err := svc.Process(img)
		if err != nil {
			return err
		}
		hand := firstHand(res)
		u := painter.Step(hand, w, h)

		if trailMode {
			canvas.Clear()
		}
		canvas.Apply(u)
		overlay.MergeCanvas(img, canvas.Mat())

		if hand != nil {
			overlay.DrawHand(img, hand)
			overlay.Marker(img, u.Tip, 6, painter.Color())
		}
		if mode == paint.ModeAirbrush {
			overlay.Toolbar(img, painter.Palette(), e.cfg.Painter.ToolbarHeight, painter.Selected())
		}
		return nil
	}, func(key int, _ *gocv.Mat) {
		switch key {
		case 'c':
			painter.Reset()
			if canvas != nil {
				canvas.Clear()
			}
		case 's':
			if canvas == nil {
				return
			}
			if _, err := saver.Save(canvas, string(mode)); err != nil {
				zap.L().Warn("save drawing", zap.Error(err))
			}
		}
	})
}
