package server

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"gocv.io/x/gocv"
	"go.uber.org/zap"

	"github.com/ayusman/drishti/internal/capture"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/overlay"
)

const streamInterval = 66 * time.Millisecond

// StreamHandler serves the camera as an MJPEG stream. With ?overlay=1
// and a detector configured, detected hands and the frame rate are drawn
// onto every frame.
type StreamHandler struct {
	camera   capture.Camera
	detector detector.Detector
}

// NewStreamHandler creates a StreamHandler. d may be nil.
func NewStreamHandler(camera capture.Camera, d detector.Detector) *StreamHandler {
	return &StreamHandler{camera: camera, detector: d}
}

// ServeHTTP streams frames until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	annotate := h.detector != nil && r.URL.Query().Get("overlay") == "1"
	var fps overlay.FPSCounter

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			if errors.Is(err, capture.ErrEndOfStream) {
				return
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		if annotate {
			h.annotate(frame, &fps)
		}
		err = writePart(w, frame)
		frame.Close()
		if err != nil {
			zap.L().Debug("stream client gone", zap.Error(err))
			return
		}

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		time.Sleep(streamInterval)
	}
}

func (h *StreamHandler) annotate(frame *gocv.Mat, fps *overlay.FPSCounter) {
	hands, err := h.detector.Detect(frame)
	if err == nil {
		for i := range hands {
			overlay.DrawHand(frame, &hands[i])
		}
	}
	fps.Tick(time.Now())
	overlay.Label(frame, fps.Label(), image.Pt(10, 30), overlay.Green)
}

// writePart writes frame as one JPEG part of the multipart stream.
func writePart(w http.ResponseWriter, frame *gocv.Mat) error {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		// Skip frames that fail to encode.
		return nil
	}
	defer buf.Close()

	data := buf.GetBytes()
	if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprint(w, "\r\n")
	return err
}
