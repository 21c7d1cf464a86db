package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/plugin"
	"github.com/ayusman/drishti/internal/store"
)

type fakePipeline struct {
	enabled   bool
	reloads   int
	listeners []func(app.Event)
	mgr       *plugin.Manager
	ran       string
}

func (f *fakePipeline) IsEnabled() bool         { return f.enabled }
func (f *fakePipeline) SetEnabled(enabled bool) { f.enabled = enabled }
func (f *fakePipeline) LoadGestures() error     { f.reloads++; return nil }
func (f *fakePipeline) OnGesture(fn func(app.Event)) {
	f.listeners = append(f.listeners, fn)
}
func (f *fakePipeline) PluginManager() *plugin.Manager { return f.mgr }
func (f *fakePipeline) ExecuteAction(_ context.Context, gestureID, _ string) (*plugin.Response, error) {
	f.ran = gestureID
	return &plugin.Response{Success: true}, nil
}

func newPluginManager(t *testing.T) *plugin.Manager {
	t.Helper()
	dir := t.TempDir()
	pdir := filepath.Join(dir, "keyboard")
	require.NoError(t, os.MkdirAll(pdir, 0o755))
	manifest := `{"name":"keyboard","version":"1.0.0","description":"keys","executable":"run.sh","actions":["press"]}`
	require.NoError(t, os.WriteFile(filepath.Join(pdir, "plugin.json"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(pdir, "run.sh"), []byte("#!/bin/sh\necho '{\"success\":true}'\n"), 0o755))

	m := plugin.NewManager(dir)
	require.NoError(t, m.Discover())
	return m
}

func newPipelineServer(t *testing.T) (*Server, *fakePipeline, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	p := &fakePipeline{mgr: newPluginManager(t)}
	return New(Config{Store: st, Pipeline: p}), p, st
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestServer_HealthComponents(t *testing.T) {
	srv, _, _ := newPipelineServer(t)

	rec := do(t, srv, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health healthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.True(t, health.Components["store"])
	assert.True(t, health.Components["pipeline"])
	assert.False(t, health.Components["camera"])
	assert.False(t, health.Components["ocr"])
}

func TestServer_State(t *testing.T) {
	srv, p, _ := newPipelineServer(t)

	rec := do(t, srv, http.MethodPut, "/api/state", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, p.enabled)
	assert.JSONEq(t, `{"enabled":true}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/state", "")
	assert.JSONEq(t, `{"enabled":true}`, rec.Body.String())

	rec = do(t, srv, http.MethodPut, "/api/state", `nope`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/state", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Plugins(t *testing.T) {
	srv, _, _ := newPipelineServer(t)

	rec := do(t, srv, http.MethodGet, "/api/plugins", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Plugins []pluginInfo `json:"plugins"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out.Plugins, 1)
	assert.Equal(t, "keyboard", out.Plugins[0].Name)
	assert.Equal(t, []string{"press"}, out.Plugins[0].Actions)
}

func TestServer_GestureChangesReloadPipeline(t *testing.T) {
	srv, p, st := newPipelineServer(t)
	require.NoError(t, st.Gestures().Create(&store.Gesture{ID: "g1", Name: "fist", Type: store.GestureTypeStatic, Tolerance: 0.2}))

	rec := do(t, srv, http.MethodPut, "/api/gestures/g1", `{"name":"closed fist"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, p.reloads)

	rec = do(t, srv, http.MethodPost, "/api/gestures/g1/train", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "train routes to the samples handler")
}

func TestServer_ActionsUsePipeline(t *testing.T) {
	srv, p, st := newPipelineServer(t)
	require.NoError(t, st.Gestures().Create(&store.Gesture{ID: "g1", Name: "fist", Type: store.GestureTypeStatic, Tolerance: 0.2}))

	rec := do(t, srv, http.MethodPost, "/api/actions", `{"gesture_id":"g1","plugin_name":"keyboard","action_name":"type"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/actions", `{"gesture_id":"g1","plugin_name":"keyboard","action_name":"press"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = do(t, srv, http.MethodPost, "/api/actions/"+created.ID+"/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "g1", p.ran)
}

func TestServer_OptionalRoutesAbsent(t *testing.T) {
	srv := New(Config{})
	for _, path := range []string{"/api/ocr", "/api/chat", "/api/assistant/status", "/api/stream", "/api/state"} {
		rec := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestServer_EventsWebSocket(t *testing.T) {
	srv, p, _ := newPipelineServer(t)
	ts := httptest.NewServer(srv)
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.events.Len() == 1 }, time.Second, 10*time.Millisecond)

	require.Len(t, p.listeners, 1)
	p.listeners[0](app.Event{GestureID: "swipe_left", Name: "swipe_left", Kind: app.KindSwipe, Score: 1})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev app.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "swipe_left", ev.GestureID)
	assert.Equal(t, app.KindSwipe, ev.Kind)
}

func TestStreamHandler_WritesJPEGParts(t *testing.T) {
	frames := make([]*gocv.Mat, 2)
	for i := range frames {
		m := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		frames[i] = &m
		defer m.Close()
	}
	cam := capture.NewMockCamera(frames, false)
	require.NoError(t, cam.Open())

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	h := NewStreamHandler(cam, det)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream?overlay=1", nil))

	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", rec.Header().Get("Content-Type"))
	body := rec.Body.Bytes()
	assert.Equal(t, 2, bytes.Count(body, []byte("--frame\r\n")))
	assert.Equal(t, 2, det.Calls())

	// JPEG start-of-image marker follows each part header.
	idx := bytes.Index(body, []byte("\r\n\r\n"))
	require.Positive(t, idx)
	assert.Equal(t, []byte{0xFF, 0xD8}, body[idx+4:idx+6])

	rec = do(t, h, http.MethodPost, "/api/stream", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWritePart(t *testing.T) {
	m := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer m.Close()

	rec := httptest.NewRecorder()
	require.NoError(t, writePart(rec, &m))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "--frame\r\nContent-Type: image/jpeg\r\n"))

}
