// Package server wires drishti's HTTP surface: the JSON API under /api,
// the MJPEG preview, the WebSocket feeds and the static web UI.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/plugin"
	"github.com/ayusman/drishti/internal/server/api"
	"github.com/ayusman/drishti/internal/store"
)

// Pipeline is the background gesture pipeline as seen by the API.
// *app.App satisfies it.
type Pipeline interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
	LoadGestures() error
	OnGesture(fn func(app.Event))
	PluginManager() *plugin.Manager
	ExecuteAction(ctx context.Context, gestureID, gestureName string) (*plugin.Response, error)
}

// Config holds the server configuration. Every component is optional;
// routes for missing components are not registered.
type Config struct {
	StaticDir string
	Store     *store.Store
	Camera    capture.Camera
	Detector  detector.Detector
	Pipeline  Pipeline

	OCR          api.TextExtractor
	MaxUploadMB  int
	MaxDimension int

	Chat      api.Responder
	Assistant api.CommandRunner
	Listener  api.ListenController
}

// Server is drishti's HTTP handler.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	events *Hub
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	var reload func() error
	if p := s.config.Pipeline; p != nil {
		reload = p.LoadGestures
		s.mux.HandleFunc("/api/state", s.handleState)
		s.mux.HandleFunc("/api/plugins", s.handlePlugins)

		s.events = NewHub()
		p.OnGesture(func(ev app.Event) { s.events.Publish(ev) })
		s.mux.Handle("/api/events", s.events)
	}

	if st := s.config.Store; st != nil {
		gestureHandler := api.NewGestureHandler(st).WithReload(reload)
		samplesHandler := api.NewSamplesHandler(st).WithReload(reload)

		gestureRouter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/samples") || strings.HasSuffix(r.URL.Path, "/train") {
				samplesHandler.ServeHTTP(w, r)
				return
			}
			gestureHandler.ServeHTTP(w, r)
		})
		s.mux.Handle("/api/gestures", gestureRouter)
		s.mux.Handle("/api/gestures/", gestureRouter)

		actions := api.NewActionHandler(st)
		if p := s.config.Pipeline; p != nil {
			actions.WithPlugins(p.PluginManager()).WithRunner(p)
		}
		s.mux.Handle("/api/actions", actions)
		s.mux.Handle("/api/actions/", actions)
	}

	if s.config.OCR != nil {
		s.mux.Handle("/api/ocr", api.NewOCRHandler(s.config.OCR, s.config.MaxUploadMB, s.config.MaxDimension))
	}

	if s.config.Chat != nil {
		chat := api.NewChatHandler(s.config.Chat)
		s.mux.Handle("/api/chat", chat)
		s.mux.Handle("/api/chat/", chat)
	}

	if s.config.Assistant != nil {
		var history *store.AssistantHistoryRepository
		if s.config.Store != nil {
			history = s.config.Store.AssistantHistory()
		}
		s.mux.Handle("/api/assistant/", api.NewAssistantHandler(s.config.Assistant, s.config.Listener, history))
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera, s.config.Detector))
	}

	if s.config.Camera != nil && s.config.Detector != nil {
		s.mux.Handle("/api/landmarks", NewLandmarksHandler(s.config.Detector, s.config.Camera))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status     string          `json:"status"`
	Uptime     string          `json:"uptime"`
	Components map[string]bool `json:"components"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).Round(time.Second).String(),
		Components: map[string]bool{
			"store":     s.config.Store != nil,
			"camera":    s.config.Camera != nil,
			"detector":  s.config.Detector != nil,
			"pipeline":  s.config.Pipeline != nil,
			"ocr":       s.config.OCR != nil,
			"chat":      s.config.Chat != nil,
			"assistant": s.config.Assistant != nil,
		},
	})
}

type stateResponse struct {
	Enabled bool `json:"enabled"`
}

// handleState reads and toggles gesture detection.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	p := s.config.Pipeline
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req stateResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		p.SetEnabled(req.Enabled)
		zap.L().Info("detection toggled", zap.Bool("enabled", req.Enabled))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{Enabled: p.IsEnabled()})
}

type pluginInfo struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	plugins := s.config.Pipeline.PluginManager().List()
	out := make([]pluginInfo, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, pluginInfo{
			Name:        p.Manifest.Name,
			Version:     p.Manifest.Version,
			Description: p.Manifest.Description,
			Actions:     p.Manifest.Actions,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"plugins": out})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.events != nil {
		s.events.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
