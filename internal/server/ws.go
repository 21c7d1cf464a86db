package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
)

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local UI only
	},
}

// Hub fans JSON messages out to every connected WebSocket client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the client registered until
// it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Debug("websocket upgrade", zap.Error(err))
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer h.drop(conn)

	// Clients only listen; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Publish sends v as JSON to every client. Clients that fail the write
// are dropped.
func (h *Hub) Publish(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		zap.L().Warn("encode websocket message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

type landmarksMessage struct {
	Hands     []detector.HandLandmarks `json:"hands"`
	Timestamp int64                    `json:"timestamp"`
}

// LandmarksHandler streams detected hand landmarks over WebSocket at
// about 15 frames per second while at least one client is connected.
type LandmarksHandler struct {
	*Hub
	detector detector.Detector
	camera   capture.Camera
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewLandmarksHandler starts the broadcast loop for d and c.
func NewLandmarksHandler(d detector.Detector, c capture.Camera) *LandmarksHandler {
	h := &LandmarksHandler{
		Hub:      NewHub(),
		detector: d,
		camera:   c,
		interval: 66 * time.Millisecond,
		stop:     make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Close stops the broadcast loop and disconnects clients.
func (h *LandmarksHandler) Close() {
	h.once.Do(func() {
		close(h.stop)
		h.Hub.Close()
	})
}

func (h *LandmarksHandler) broadcast() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}
		if h.Len() == 0 {
			continue
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			continue
		}
		hands, err := h.detector.Detect(frame)
		frame.Close()
		if err != nil {
			zap.L().Debug("landmarks detect", zap.Error(err))
			continue
		}

		h.Publish(landmarksMessage{Hands: hands, Timestamp: time.Now().UnixMilli()})
	}
}
