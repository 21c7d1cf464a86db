package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ayusman/drishti/internal/plugin"
	"github.com/ayusman/drishti/internal/store"
)

// PluginCatalog reports which plugin actions exist.
type PluginCatalog interface {
	Supports(name, action string) bool
}

// ActionRunner runs the action bound to a gesture.
type ActionRunner interface {
	ExecuteAction(ctx context.Context, gestureID, gestureName string) (*plugin.Response, error)
}

// ActionHandler serves /api/actions, binding gestures to plugin actions.
type ActionHandler struct {
	store   *store.Store
	plugins PluginCatalog
	runner  ActionRunner
}

// NewActionHandler creates an ActionHandler backed by s.
func NewActionHandler(s *store.Store) *ActionHandler {
	return &ActionHandler{store: s}
}

// WithPlugins makes create and update reject unknown plugin actions.
func (h *ActionHandler) WithPlugins(c PluginCatalog) *ActionHandler {
	h.plugins = c
	return h
}

// WithRunner enables POST /api/actions/{id}/run.
func (h *ActionHandler) WithRunner(r ActionRunner) *ActionHandler {
	h.runner = r
	return h
}

// ServeHTTP routes collection, item and run requests.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/actions")

	switch {
	case len(parts) == 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 1:
		id := parts[0]
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodPut:
			h.update(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case len(parts) == 2 && parts[1] == "run":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.run(w, r, parts[0])
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type actionRequest struct {
	GestureID  string          `json:"gesture_id"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type actionResponse struct {
	ID         string          `json:"id"`
	GestureID  string          `json:"gesture_id"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listActionsResponse struct {
	Actions []actionResponse `json:"actions"`
}

type runResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func toActionResponse(a *store.Action) actionResponse {
	cfg := a.Config
	if cfg == nil {
		cfg = json.RawMessage("{}")
	}
	return actionResponse{
		ID:         a.ID,
		GestureID:  a.GestureID,
		PluginName: a.PluginName,
		ActionName: a.ActionName,
		Config:     cfg,
		Enabled:    a.Enabled,
		CreatedAt:  a.CreatedAt.Format(timeFormat),
	}
}

// checkGesture writes the error response and returns false when id is
// not a known gesture.
func (h *ActionHandler) checkGesture(w http.ResponseWriter, id string) bool {
	_, err := h.store.Gestures().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "Gesture not found")
		return false
	}
	if err != nil {
		internalError(w, "Failed to verify gesture", err)
		return false
	}
	return true
}

func (h *ActionHandler) checkPlugin(w http.ResponseWriter, name, action string) bool {
	if h.plugins == nil || h.plugins.Supports(name, action) {
		return true
	}
	writeError(w, http.StatusBadRequest, "Unknown plugin action")
	return false
}

func (h *ActionHandler) list(w http.ResponseWriter, r *http.Request) {
	actions, err := h.store.Actions().List()
	if err != nil {
		internalError(w, "Failed to list actions", err)
		return
	}

	resp := listActionsResponse{Actions: make([]actionResponse, 0, len(actions))}
	for _, a := range actions {
		resp.Actions = append(resp.Actions, toActionResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ActionHandler) load(w http.ResponseWriter, id string) *store.Action {
	a, err := h.store.Actions().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Action not found")
		return nil
	}
	if err != nil {
		internalError(w, "Failed to get action", err)
		return nil
	}
	return a
}

func (h *ActionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if a := h.load(w, id); a != nil {
		writeJSON(w, http.StatusOK, toActionResponse(a))
	}
}

func (h *ActionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	switch {
	case req.GestureID == "":
		writeError(w, http.StatusBadRequest, "gesture_id is required")
		return
	case req.PluginName == "":
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	case req.ActionName == "":
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}
	if !h.checkGesture(w, req.GestureID) || !h.checkPlugin(w, req.PluginName, req.ActionName) {
		return
	}

	existing, err := h.store.Actions().GetByGestureID(req.GestureID)
	if err != nil {
		internalError(w, "Failed to check existing action", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Action already bound to this gesture")
		return
	}

	cfg := req.Config
	if cfg == nil {
		cfg = json.RawMessage("{}")
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	a := &store.Action{
		ID:         uuid.NewString(),
		GestureID:  req.GestureID,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     cfg,
		Enabled:    enabled,
	}
	if err := h.store.Actions().Create(a); err != nil {
		internalError(w, "Failed to create action", err)
		return
	}
	writeJSON(w, http.StatusCreated, toActionResponse(a))
}

func (h *ActionHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	a := h.load(w, id)
	if a == nil {
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.GestureID != "" {
		if !h.checkGesture(w, req.GestureID) {
			return
		}
		a.GestureID = req.GestureID
	}
	if req.PluginName != "" {
		a.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		a.ActionName = req.ActionName
	}
	if !h.checkPlugin(w, a.PluginName, a.ActionName) {
		return
	}
	if req.Config != nil {
		a.Config = req.Config
	}
	if req.Enabled != nil {
		a.Enabled = *req.Enabled
	}

	if err := h.store.Actions().Update(a); err != nil {
		internalError(w, "Failed to update action", err)
		return
	}
	writeJSON(w, http.StatusOK, toActionResponse(a))
}

func (h *ActionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Actions().Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Action not found")
		return
	}
	if err != nil {
		internalError(w, "Failed to delete action", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// run fires the action as if its gesture had just been recognised.
func (h *ActionHandler) run(w http.ResponseWriter, r *http.Request, id string) {
	if h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "Gesture pipeline not running")
		return
	}
	a := h.load(w, id)
	if a == nil {
		return
	}

	name := a.GestureID
	if g, err := h.store.Gestures().GetByID(a.GestureID); err == nil {
		name = g.Name
	}

	resp, err := h.runner.ExecuteAction(r.Context(), a.GestureID, name)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, runResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runResponse{Success: resp.Success, Error: resp.Error})
}
