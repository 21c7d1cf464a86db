// Package app runs the background gesture pipeline behind `drishti serve`:
// motion-gated hand detection, template matching, swipe tracking and the
// plugin actions bound to each recognised gesture.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/gesture"
	"github.com/ayusman/drishti/internal/plugin"
	"github.com/ayusman/drishti/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
	// PathBufferSize is the maximum number of frames to buffer for dynamic gesture detection.
	PathBufferSize = 60
	// MinDynamicPoints is the shortest buffered path handed to the DTW matcher.
	MinDynamicPoints = 10
)

// Kind tells where a recognised gesture came from.
type Kind string

const (
	KindStatic  Kind = "static"
	KindDynamic Kind = "dynamic"
	KindSwipe   Kind = "swipe"
)

// Event is published for every recognised gesture.
type Event struct {
	GestureID string    `json:"gesture_id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Score     float64   `json:"score"`
	At        time.Time `json:"at"`
}

// Config holds configuration options for the application.
type Config struct {
	Store           *store.Store
	PluginDir       string
	CameraID        int
	Camera          capture.Camera    // overrides CameraID when set
	Detector        detector.Detector // overrides the MediaPipe helper when set
	DetectorConfig  detector.Config
	MotionThresh    float64
	PluginTimeoutMs int
	Swipe           gesture.SwipeOptions
	// SwipePlugin receives swipes that have no stored binding. Empty
	// disables the fallback.
	SwipePlugin string
}

// App is the main application that orchestrates gesture detection and action execution.
type App struct {
	config         Config
	camera         capture.Camera
	motion         *capture.MotionDetector
	detector       detector.Detector
	staticMatcher  *gesture.StaticMatcher
	dynamicMatcher *gesture.DynamicMatcher
	swipe          *gesture.SwipeTracker
	pluginMgr      *plugin.Manager
	pluginExec     *plugin.Executor
	enabled        bool
	mu             sync.RWMutex
	stopCh         chan struct{}
	done           chan struct{}
	listeners      []func(Event)
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // 1% of pixels changed
	}
	timeout := config.PluginTimeoutMs
	if timeout <= 0 {
		timeout = 5000
	}
	if config.Swipe == (gesture.SwipeOptions{}) {
		config.Swipe = gesture.DefaultSwipeOptions()
	}

	cam := config.Camera
	if cam == nil {
		cam = capture.NewCamera(config.CameraID)
	}

	a := &App{
		config:         config,
		camera:         cam,
		motion:         capture.NewMotionDetector(motionThreshold),
		staticMatcher:  gesture.NewStaticMatcher(),
		dynamicMatcher: gesture.NewDynamicMatcher(),
		swipe:          gesture.NewSwipeTracker(config.Swipe),
		pluginMgr:      plugin.NewManager(config.PluginDir),
		pluginExec:     plugin.NewExecutor(timeout),
	}

	switch {
	case config.Detector != nil:
		a.detector = config.Detector
	default:
		dc := config.DetectorConfig
		if dc.MaxHands == 0 {
			dc = detector.DefaultConfig()
		}
		if mp, err := detector.NewMediaPipeDetector(dc); err == nil {
			a.detector = mp
			zap.L().Info("using mediapipe hand detection")
		} else {
			zap.L().Warn("mediapipe not available, using mock detector", zap.Error(err))
			a.detector = detector.NewMockDetector()
		}
	}

	if config.Store != nil {
		a.enabled = config.Store.Settings().GetBool(store.SettingDetectionEnabled, false)
		a.registerSwipeGestures()
	}

	return a
}

// registerSwipeGestures makes the swipe pseudo-gestures available as
// action targets. They carry no path, so the DTW matcher skips them.
func (a *App) registerSwipeGestures() {
	for _, d := range []gesture.Direction{gesture.SwipeLeft, gesture.SwipeRight, gesture.SwipeUp, gesture.SwipeDown} {
		id := SwipeID(d)
		err := a.config.Store.Gestures().Ensure(&store.Gesture{
			ID:   id,
			Name: id,
			Type: store.GestureTypeDynamic,
		})
		if err != nil {
			zap.L().Warn("register swipe gesture", zap.String("gesture", id), zap.Error(err))
		}
	}
}

// SetEnabled enables or disables gesture detection. The choice is
// persisted so the next start resumes in the same state.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(store.SettingDetectionEnabled, fmt.Sprint(enabled)); err != nil {
			zap.L().Warn("persist detection flag", zap.Error(err))
		}
	}
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// OnGesture registers fn to run for every recognised gesture. Callbacks
// run on the pipeline goroutine and must not block.
func (a *App) OnGesture(fn func(Event)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// LoadGestures replaces the matcher templates with the gestures in the database.
func (a *App) LoadGestures() error {
	if a.config.Store == nil {
		return nil
	}

	gestures, err := a.config.Store.Gestures().List()
	if err != nil {
		return fmt.Errorf("list gestures: %w", err)
	}

	a.staticMatcher.Clear()
	a.dynamicMatcher.Clear()

	for _, g := range gestures {
		template := &gesture.Template{
			ID:        g.ID,
			Name:      g.Name,
			Tolerance: g.Tolerance,
		}

		switch g.Type {
		case store.GestureTypeStatic:
			template.Type = gesture.TypeStatic
			landmarks, err := a.config.Store.Gestures().GetLandmarks(g.ID)
			if err != nil {
				zap.L().Warn("load landmarks", zap.String("gesture", g.Name), zap.Error(err))
			} else if len(landmarks) > 0 {
				template.Landmarks = storeLandmarksToDetector(landmarks)
			}
			a.staticMatcher.AddTemplate(template)

		case store.GestureTypeDynamic:
			template.Type = gesture.TypeDynamic
			path, err := a.config.Store.Gestures().GetPath(g.ID)
			if err != nil {
				zap.L().Warn("load path", zap.String("gesture", g.Name), zap.Error(err))
			} else if len(path) > 0 {
				template.Path = storePathToGesture(path)
			}
			a.dynamicMatcher.AddTemplate(template)
		}
	}

	zap.L().Info("gestures loaded",
		zap.Int("static", a.staticMatcher.Len()),
		zap.Int("dynamic", a.dynamicMatcher.Len()))
	return nil
}

func storeLandmarksToDetector(landmarks []store.Landmark) []detector.Point3D {
	points := make([]detector.Point3D, len(landmarks))
	for i, l := range landmarks {
		points[i] = detector.Point3D{X: l.X, Y: l.Y, Z: l.Z}
	}
	return points
}

func storePathToGesture(path []store.PathPoint) []gesture.PathPoint {
	points := make([]gesture.PathPoint, len(path))
	for i, p := range path {
		points[i] = gesture.PathPoint{X: p.X, Y: p.Y, Timestamp: p.TimestampMs}
	}
	return points
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(IdleFPS)

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go func(stop, done chan struct{}) {
		defer close(done)
		a.runPipeline(stop)
	}(a.stopCh, a.done)

	zap.L().Info("detection pipeline started")
	return nil
}

// Run starts the pipeline and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	a.Stop()
	return nil
}

// Stop halts the detection pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	stop, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	if err := a.camera.Close(); err != nil {
		zap.L().Warn("close camera", zap.Error(err))
	}
	a.motion.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			zap.L().Warn("close detector", zap.Error(err))
		}
	}

	zap.L().Info("detection pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// StaticMatcher returns the static gesture matcher.
func (a *App) StaticMatcher() *gesture.StaticMatcher {
	return a.staticMatcher
}

// DynamicMatcher returns the dynamic gesture matcher.
func (a *App) DynamicMatcher() *gesture.DynamicMatcher {
	return a.dynamicMatcher
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// ErrNoBinding is returned by ExecuteAction when nothing is bound to a gesture.
var ErrNoBinding = errors.New("no action bound to gesture")

// ExecuteAction runs the plugin action bound to gestureID. Swipes use the
// pseudo-gesture IDs "swipe_left", "swipe_right", "swipe_up" and
// "swipe_down"; an unbound swipe falls back to Config.SwipePlugin.
func (a *App) ExecuteAction(ctx context.Context, gestureID, gestureName string) (*plugin.Response, error) {
	pluginName, actionName, cfg, err := a.resolveBinding(gestureID)
	if err != nil {
		return nil, err
	}

	p, err := a.pluginMgr.Get(pluginName)
	if err != nil {
		return nil, fmt.Errorf("action for %s: %w", gestureName, err)
	}

	resp, err := a.pluginExec.ExecuteContext(ctx, p, &plugin.Request{
		Action:  actionName,
		Gesture: gestureName,
		Config:  cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("run %s.%s: %w", pluginName, actionName, err)
	}
	if !resp.Success {
		zap.L().Warn("plugin reported failure",
			zap.String("plugin", pluginName),
			zap.String("action", actionName),
			zap.String("error", resp.Error))
	}
	return resp, nil
}

func (a *App) resolveBinding(gestureID string) (pluginName, actionName string, cfg json.RawMessage, err error) {
	if a.config.Store != nil {
		binding, err := a.config.Store.Actions().GetByGestureID(gestureID)
		if err != nil {
			return "", "", nil, fmt.Errorf("lookup action: %w", err)
		}
		if binding != nil {
			if !binding.Enabled {
				return "", "", nil, ErrNoBinding
			}
			return binding.PluginName, binding.ActionName, binding.Config, nil
		}
	}

	if IsSwipeID(gestureID) && a.config.SwipePlugin != "" {
		return a.config.SwipePlugin, "press", nil, nil
	}
	return "", "", nil, ErrNoBinding
}

// SwipeID is the pseudo-gesture ID under which a swipe direction is bound.
func SwipeID(d gesture.Direction) string {
	return "swipe_" + string(d)
}

// IsSwipeID reports whether id names a swipe pseudo-gesture.
func IsSwipeID(id string) bool {
	switch id {
	case SwipeID(gesture.SwipeLeft), SwipeID(gesture.SwipeRight),
		SwipeID(gesture.SwipeUp), SwipeID(gesture.SwipeDown):
		return true
	}
	return false
}
