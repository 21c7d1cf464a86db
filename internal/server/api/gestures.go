package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/drishti/internal/gesture"
	"github.com/ayusman/drishti/internal/store"
)

// BuiltinPrefix marks gestures the pipeline registers itself (swipes).
// They can be bound to actions but not edited or deleted.
const BuiltinPrefix = "swipe_"

// GestureHandler serves /api/gestures and /api/gestures/{id}.
type GestureHandler struct {
	store  *store.Store
	reload reloader
}

// NewGestureHandler creates a GestureHandler backed by s.
func NewGestureHandler(s *store.Store) *GestureHandler {
	return &GestureHandler{store: s}
}

// WithReload sets a callback run after gestures change.
func (h *GestureHandler) WithReload(fn func() error) *GestureHandler {
	h.reload = fn
	return h
}

// ServeHTTP routes collection and item requests.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/gestures")

	switch len(parts) {
	case 0:
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case 1:
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
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type gestureRequest struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Tolerance float64 `json:"tolerance"`
}

type gestureResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Tolerance float64 `json:"tolerance"`
	Samples   int     `json:"samples"`
	Trained   bool    `json:"trained"`
	Builtin   bool    `json:"builtin"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

func isBuiltin(id string) bool {
	return strings.HasPrefix(id, BuiltinPrefix)
}

func validType(t store.GestureType) bool {
	return t == store.GestureTypeStatic || t == store.GestureTypeDynamic
}

func (h *GestureHandler) trained(g *store.Gesture) bool {
	repo := h.store.Gestures()
	if g.Type == store.GestureTypeStatic {
		lms, err := repo.GetLandmarks(g.ID)
		return err == nil && len(lms) > 0
	}
	path, err := repo.GetPath(g.ID)
	return err == nil && len(path) > 0
}

func (h *GestureHandler) toResponse(g *store.Gesture) gestureResponse {
	return gestureResponse{
		ID:        g.ID,
		Name:      g.Name,
		Type:      string(g.Type),
		Tolerance: g.Tolerance,
		Samples:   g.Samples,
		Trained:   h.trained(g),
		Builtin:   isBuiltin(g.ID),
		CreatedAt: g.CreatedAt.Format(timeFormat),
		UpdatedAt: g.UpdatedAt.Format(timeFormat),
	}
}

func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	gestures, err := h.store.Gestures().List()
	if err != nil {
		internalError(w, "Failed to list gestures", err)
		return
	}

	resp := listGesturesResponse{Gestures: make([]gestureResponse, 0, len(gestures))}
	for _, g := range gestures {
		resp.Gestures = append(resp.Gestures, h.toResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	g, err := h.store.Gestures().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}
	if err != nil {
		internalError(w, "Failed to get gesture", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(g))
}

// nameTaken writes 409 and reports true when another gesture is called name.
func (h *GestureHandler) nameTaken(w http.ResponseWriter, name string) bool {
	_, err := h.store.Gestures().GetByName(name)
	switch {
	case err == nil:
		writeError(w, http.StatusConflict, "Gesture name already exists")
		return true
	case !errors.Is(err, store.ErrNotFound):
		internalError(w, "Failed to check gesture name", err)
		return true
	}
	return false
}

func (h *GestureHandler) create(w http.ResponseWriter, r *http.Request) {
	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if h.nameTaken(w, req.Name) {
		return
	}

	kind := store.GestureType(req.Type)
	if kind == "" {
		kind = store.GestureTypeStatic
	}
	if !validType(kind) {
		writeError(w, http.StatusBadRequest, "Invalid gesture type")
		return
	}

	tolerance := req.Tolerance
	if tolerance <= 0 {
		tolerance = gesture.DefaultTolerance
	}

	g := &store.Gesture{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Type:      kind,
		Tolerance: tolerance,
	}
	if err := h.store.Gestures().Create(g); err != nil {
		internalError(w, "Failed to create gesture", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.toResponse(g))
}

func (h *GestureHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	if isBuiltin(id) {
		writeError(w, http.StatusForbidden, "Built-in gestures cannot be changed")
		return
	}

	g, err := h.store.Gestures().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}
	if err != nil {
		internalError(w, "Failed to get gesture", err)
		return
	}

	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" && req.Name != g.Name {
		if h.nameTaken(w, req.Name) {
			return
		}
		g.Name = req.Name
	}
	if req.Type != "" {
		kind := store.GestureType(req.Type)
		if !validType(kind) {
			writeError(w, http.StatusBadRequest, "Invalid gesture type")
			return
		}
		g.Type = kind
	}
	if req.Tolerance > 0 {
		g.Tolerance = req.Tolerance
	}

	if err := h.store.Gestures().Update(g); err != nil {
		internalError(w, "Failed to update gesture", err)
		return
	}
	h.reload.run()
	writeJSON(w, http.StatusOK, h.toResponse(g))
}

func (h *GestureHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if isBuiltin(id) {
		writeError(w, http.StatusForbidden, "Built-in gestures cannot be deleted")
		return
	}

	err := h.store.Gestures().Delete(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}
	if err != nil {
		internalError(w, "Failed to delete gesture", err)
		return
	}
	h.reload.run()
	w.WriteHeader(http.StatusNoContent)
}
