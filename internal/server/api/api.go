// Package api holds the JSON handlers behind drishti's HTTP server:
// gestures and their samples, action bindings, OCR uploads, the chatbot
// and the voice assistant.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const timeFormat = time.RFC3339

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes data as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Debug("write response", zap.Error(err))
	}
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// internalError logs err and answers with a generic 500.
func internalError(w http.ResponseWriter, message string, err error) {
	zap.L().Error(message, zap.Error(err))
	writeError(w, http.StatusInternalServerError, message)
}

// splitPath trims prefix from path and returns the remaining segments.
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// reloader is called after a change that the live pipeline must pick up.
type reloader func() error

func (r reloader) run() {
	if r == nil {
		return
	}
	if err := r(); err != nil {
		zap.L().Warn("reload gestures", zap.Error(err))
	}
}
