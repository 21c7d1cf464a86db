package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/overlay"
	"github.com/ayusman/drishti/internal/paint"
	"github.com/ayusman/drishti/internal/store"
)

const (
	keyEsc   = 27
	keySpace = 32
)

var now = time.Now

// env carries the loaded configuration and lazily opened shared resources.
type env struct {
	cfg   *config.Config
	store *store.Store
}

func newEnv(cfg *config.Config) *env {
	return &env{cfg: cfg}
}

// Store opens the database in the data directory on first use.
func (e *env) Store() (*store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}
	if err := os.MkdirAll(e.cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.New(e.cfg.Path("drishti.db"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st
	return st, nil
}

// Saver writes snapshots under the data directory. Snapshots are still
// written when the database cannot be opened.
func (e *env) Saver() *paint.Saver {
	var captures *store.CaptureRepository
	if st, err := e.Store(); err == nil {
		captures = st.Captures()
	} else {
		zap.L().Warn("snapshots will not be recorded", zap.Error(err))
	}
	return paint.NewSaver(e.cfg.Path("captures"), captures)
}

// Close closes the store if it was opened. It is safe to call twice.
func (e *env) Close() {
	if e.store == nil {
		return
	}
	if err := e.store.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
	e.store = nil
}

// detectorConfig maps the detector section onto a helper configuration.
func (e *env) detectorConfig(solution detector.Solution) detector.Config {
	dc := detector.DefaultConfig()
	d := e.cfg.Detector
	dc.Solution = solution
	dc.Python = d.Python
	dc.Script = d.Script
	if d.MaxHands > 0 {
		dc.MaxHands = d.MaxHands
	}
	if d.MaxFaces > 0 {
		dc.MaxFaces = d.MaxFaces
	}
	if d.MinConfidence > 0 {
		dc.MinConfidence = d.MinConfidence
	}
	if d.MinTrackingConf > 0 {
		dc.MinTrackingConf = d.MinTrackingConf
	}
	if d.ObjectronModel != "" {
		dc.ObjectronModel = d.ObjectronModel
	}
	return dc
}

// Landmarker starts the helper service for solution.
func (e *env) Landmarker(solution detector.Solution) (*detector.MediaPipeService, error) {
	svc, err := detector.NewMediaPipeService(e.detectorConfig(solution))
	if err != nil {
		return nil, fmt.Errorf("%s landmarks: %w", solution, err)
	}
	return svc, nil
}

// Haar loads the configured frontal face cascade. A relative path is
// tried as given and then under the data directory.
func (e *env) Haar() (*detector.HaarFaceDetector, error) {
	path := e.cfg.Detector.CascadePath
	if !filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			path = e.cfg.Path(path)
		}
	}
	return detector.NewHaarFaceDetector(path)
}

// source holds the camera flags shared by the capture commands.
type source struct {
	device *int
	video  *string
	mirror *bool
}

func sourceFlags(fs *flag.FlagSet, cfg *config.Config) source {
	return source{
		device: fs.Int("device", cfg.Camera.Device, "camera device index"),
		video:  fs.String("video", "", "read frames from a video file instead of the camera"),
		mirror: fs.Bool("mirror", cfg.Camera.Mirror, "flip camera frames horizontally"),
	}
}

// camera returns the unopened frame source the flags select.
func (s source) camera(cfg *config.Config) capture.Camera {
	if *s.video != "" {
		return capture.NewVideoFile(*s.video)
	}
	return capture.NewCameraWithOptions(*s.device, capture.Options{
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
		Mirror: *s.mirror,
	})
}

// open returns the selected frame source, opened.
func (s source) open(cfg *config.Config) (capture.Camera, error) {
	cam := s.camera(cfg)
	if err := cam.Open(); err != nil {
		return nil, err
	}
	return cam, nil
}

// loop is the read, process, show, key cycle every camera demo shares.
type loop struct {
	title string
	cam   capture.Camera
	// fpsAt places the FPS label; the zero point hides it.
	fpsAt image.Point
	hud   []string
}

// run shows frames until the source ends, ctx is cancelled or the user
// presses ESC or q. process draws onto each frame; onKey sees every other
// key press.
func (l *loop) run(ctx context.Context, process func(img *gocv.Mat) error, onKey func(key int, img *gocv.Mat)) error {
	window := gocv.NewWindow(l.title)
	defer window.Close()

	var fps overlay.FPSCounter
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := l.cam.ReadFrame()
		if errors.Is(err, capture.ErrEndOfStream) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		if process != nil {
			if err := process(frame); err != nil {
				zap.L().Warn("process frame", zap.String("demo", l.title), zap.Error(err))
			}
		}
		if len(l.hud) > 0 {
			overlay.HUD(frame, l.hud)
		}
		if l.fpsAt != (image.Point{}) {
			fps.Tick(now())
			overlay.Label(frame, fps.Label(), l.fpsAt, overlay.Green)
		}

		window.IMShow(*frame)
		key := window.WaitKey(1)
		if key == keyEsc || key == 'q' {
			frame.Close()
			return nil
		}
		if key >= 0 && onKey != nil {
			onKey(key, frame)
		}
		frame.Close()
	}
}
