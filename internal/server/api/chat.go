package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/drishti/internal/chatbot"
	"github.com/ayusman/drishti/internal/store"
)

// Responder answers chat questions and keeps their history.
type Responder interface {
	Respond(ctx context.Context, question string) (chatbot.Reply, error)
	Questions() []string
	History(limit int) ([]store.ChatEntry, error)
	ClearHistory() error
}

// ChatHandler serves /api/chat, /api/chat/history and /api/chat/questions.
type ChatHandler struct {
	bot Responder
}

// NewChatHandler creates a ChatHandler answering with bot.
func NewChatHandler(bot Responder) *ChatHandler {
	return &ChatHandler{bot: bot}
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatHistoryResponse struct {
	History []store.ChatEntry `json:"history"`
}

type questionsResponse struct {
	Questions []string `json:"questions"`
}

// ServeHTTP routes chat requests.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/chat")

	switch {
	case len(parts) == 0:
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ask(w, r)
	case len(parts) == 1 && parts[0] == "history":
		switch r.Method {
		case http.MethodGet:
			h.history(w, r)
		case http.MethodDelete:
			if err := h.bot.ClearHistory(); err != nil {
				internalError(w, "Failed to clear history", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 1 && parts[0] == "questions":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, questionsResponse{Questions: h.bot.Questions()})
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *ChatHandler) ask(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	reply, err := h.bot.Respond(r.Context(), req.Question)
	if errors.Is(err, chatbot.ErrEmptyQuestion) {
		writeError(w, http.StatusBadRequest, "Question is required")
		return
	}
	if err != nil {
		internalError(w, "Failed to answer", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// limitParam reads ?limit=, falling back to def.
func limitParam(r *http.Request, def int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		return n
	}
	return def
}

func (h *ChatHandler) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.bot.History(limitParam(r, 50))
	if err != nil {
		internalError(w, "Failed to load history", err)
		return
	}
	if entries == nil {
		entries = []store.ChatEntry{}
	}
	writeJSON(w, http.StatusOK, chatHistoryResponse{History: entries})
}
