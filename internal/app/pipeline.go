package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/gesture"
	"github.com/ayusman/drishti/internal/store"
)

// pipelineState is the per-run state of the detection loop.
type pipelineState struct {
	pathBuffer     []gesture.PathPoint
	activeMode     bool
	lastMotionTime time.Time
}

// runPipeline is the main detection loop. It starts idle at IdleFPS,
// switches to ActiveFPS while motion is seen and drops back to idle after
// IdleTimeoutMs without motion. Only active frames reach the detector.
func (a *App) runPipeline(stop <-chan struct{}) {
	st := &pipelineState{
		pathBuffer:     make([]gesture.PathPoint, 0, PathBufferSize),
		lastMotionTime: time.Now(),
	}

	ticker := time.NewTicker(time.Second / time.Duration(IdleFPS))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				zap.L().Debug("read frame", zap.Error(err))
				continue
			}

			moving, changed := a.motion.Detect(frame)
			now := time.Now()

			switch {
			case moving:
				st.lastMotionTime = now
				if !st.activeMode {
					st.activeMode = true
					a.camera.SetFPS(ActiveFPS)
					ticker.Reset(time.Second / time.Duration(ActiveFPS))
					zap.L().Debug("switched to active mode", zap.Float64("changed_pct", changed))
				}
			case st.activeMode && now.Sub(st.lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond:
				st.activeMode = false
				a.camera.SetFPS(IdleFPS)
				ticker.Reset(time.Second / time.Duration(IdleFPS))
				st.pathBuffer = st.pathBuffer[:0]
				a.swipe.Reset()
				zap.L().Debug("switched to idle mode")
			}

			d := a.Detector()
			if !st.activeMode || d == nil {
				frame.Close()
				continue
			}

			hands, err := d.Detect(frame)
			frame.Close()
			if err != nil {
				zap.L().Warn("detect hands", zap.Error(err))
				continue
			}

			a.processHands(st, hands, now)
		}
	}
}

// processHands matches the hands of one frame and dispatches every
// recognised gesture.
func (a *App) processHands(st *pipelineState, hands []detector.HandLandmarks, now time.Time) {
	if len(hands) == 0 {
		a.swipe.Update(nil)
		return
	}

	// Swipes follow the first hand only, the way the swipe demo does.
	if dir := a.swipe.Update(&hands[0]); dir != gesture.SwipeNone && a.swipe.Trigger(dir, now) {
		id := SwipeID(dir)
		a.dispatch(Event{GestureID: id, Name: id, Kind: KindSwipe, Score: 1, At: now})
	}

	for i := range hands {
		hand := &hands[i]

		if matches := a.staticMatcher.Match(hand); len(matches) > 0 {
			best := matches[0]
			a.dispatch(Event{
				GestureID: best.Template.ID,
				Name:      best.Template.Name,
				Kind:      KindStatic,
				Score:     best.Score,
				At:        now,
			})
		}

		tip := hand.Points[detector.IndexTip]
		if len(st.pathBuffer) >= PathBufferSize {
			copy(st.pathBuffer, st.pathBuffer[1:])
			st.pathBuffer = st.pathBuffer[:PathBufferSize-1]
		}
		st.pathBuffer = append(st.pathBuffer, gesture.PathPoint{
			X:         tip.X,
			Y:         tip.Y,
			Timestamp: now.UnixMilli(),
		})

		if len(st.pathBuffer) < MinDynamicPoints {
			continue
		}
		if matches := a.dynamicMatcher.Match(st.pathBuffer); len(matches) > 0 {
			best := matches[0]
			a.dispatch(Event{
				GestureID: best.Template.ID,
				Name:      best.Template.Name,
				Kind:      KindDynamic,
				Score:     best.Score,
				At:        now,
			})
			// Start over so one motion fires once.
			st.pathBuffer = st.pathBuffer[:0]
		}
	}
}

// dispatch notifies listeners, records the gesture and runs its action.
func (a *App) dispatch(ev Event) {
	zap.L().Info("gesture recognised",
		zap.String("gesture", ev.Name),
		zap.String("kind", string(ev.Kind)),
		zap.Float64("score", ev.Score))

	a.mu.RLock()
	listeners := append([]func(Event){}, a.listeners...)
	a.mu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(store.SettingLastGesture, ev.Name); err != nil {
			zap.L().Warn("record last gesture", zap.Error(err))
		}
	}

	a.executeAction(ev.GestureID, ev.Name)
}

// executeAction runs the bound plugin action and logs the outcome.
func (a *App) executeAction(gestureID, gestureName string) {
	resp, err := a.ExecuteAction(context.Background(), gestureID, gestureName)
	switch {
	case errors.Is(err, ErrNoBinding):
		zap.L().Debug("no action bound", zap.String("gesture", gestureName))
	case err != nil:
		zap.L().Warn("execute action", zap.String("gesture", gestureName), zap.Error(err))
	case resp.Success:
		zap.L().Info("action executed", zap.String("gesture", gestureName))
	}
}
