package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/drishti/internal/assistant"
	"github.com/ayusman/drishti/internal/store"
)

// CommandRunner handles one typed or transcribed command.
type CommandRunner interface {
	Handle(ctx context.Context, text string) assistant.Outcome
}

// ListenController starts and stops background microphone listening.
type ListenController interface {
	Listen(continuous bool) error
	Stop()
	Status() assistant.Status
}

// AssistantHandler serves /api/assistant/*.
type AssistantHandler struct {
	commands CommandRunner
	listener ListenController
	history  *store.AssistantHistoryRepository
}

// NewAssistantHandler creates an AssistantHandler. listener and history
// may be nil; the matching routes then answer 503 and an empty list.
func NewAssistantHandler(commands CommandRunner, listener ListenController, history *store.AssistantHistoryRepository) *AssistantHandler {
	return &AssistantHandler{commands: commands, listener: listener, history: history}
}

type commandRequest struct {
	Text string `json:"text"`
}

type assistantHistoryResponse struct {
	History []store.AssistantEntry `json:"history"`
}

// ServeHTTP routes assistant requests.
func (h *AssistantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/assistant")
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	want := http.MethodPost
	if parts[0] == "status" || parts[0] == "history" {
		want = http.MethodGet
	}
	if r.Method != want {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch parts[0] {
	case "command":
		h.command(w, r)
	case "listen":
		h.listen(w, r)
	case "stop":
		if h.listener == nil {
			writeError(w, http.StatusServiceUnavailable, "Microphone not available")
			return
		}
		h.listener.Stop()
		writeJSON(w, http.StatusOK, h.listener.Status())
	case "status":
		if h.listener == nil {
			writeJSON(w, http.StatusOK, assistant.Status{State: assistant.StateIdle})
			return
		}
		writeJSON(w, http.StatusOK, h.listener.Status())
	case "history":
		h.list(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *AssistantHandler) command(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}
	writeJSON(w, http.StatusOK, h.commands.Handle(r.Context(), req.Text))
}

func (h *AssistantHandler) listen(w http.ResponseWriter, r *http.Request) {
	if h.listener == nil {
		writeError(w, http.StatusServiceUnavailable, "Microphone not available")
		return
	}
	continuous := r.URL.Query().Get("continuous") == "true"
	err := h.listener.Listen(continuous)
	if errors.Is(err, assistant.ErrBusy) {
		writeError(w, http.StatusConflict, "Already listening")
		return
	}
	if err != nil {
		internalError(w, "Failed to start listening", err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.listener.Status())
}

func (h *AssistantHandler) list(w http.ResponseWriter, r *http.Request) {
	entries := []store.AssistantEntry{}
	if h.history != nil {
		got, err := h.history.Recent(limitParam(r, 50))
		if err != nil {
			internalError(w, "Failed to load history", err)
			return
		}
		if got != nil {
			entries = got
		}
	}
	writeJSON(w, http.StatusOK, assistantHistoryResponse{History: entries})
}
