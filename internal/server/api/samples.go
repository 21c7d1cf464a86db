package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/drishti/internal/gesture"
	"github.com/ayusman/drishti/internal/store"
)

// SamplesHandler serves /api/gestures/{id}/samples and
// /api/gestures/{id}/train.
type SamplesHandler struct {
	store   *store.Store
	trainer *gesture.Trainer
	reload  reloader
}

// NewSamplesHandler creates a SamplesHandler backed by s.
func NewSamplesHandler(s *store.Store) *SamplesHandler {
	return &SamplesHandler{store: s, trainer: gesture.NewTrainer()}
}

// WithReload sets a callback run after a gesture is retrained.
func (h *SamplesHandler) WithReload(fn func() error) *SamplesHandler {
	h.reload = fn
	return h
}

// ServeHTTP routes sample and training requests.
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/gestures")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	id := parts[0]

	switch parts[1] {
	case "samples":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r, id)
		case http.MethodPost:
			h.create(w, r, id)
		case http.MethodDelete:
			h.clear(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "train":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.train(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	GestureID   string          `json:"gesture_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

type trainResponse struct {
	GestureID string `json:"gesture_id"`
	Type      string `json:"type"`
	Samples   int    `json:"samples"`
	Points    int    `json:"points"`
}

// lookup writes the error response itself and returns nil when the
// gesture cannot be loaded.
func (h *SamplesHandler) lookup(w http.ResponseWriter, id string) *store.Gesture {
	g, err := h.store.Gestures().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return nil
	}
	if err != nil {
		internalError(w, "Failed to verify gesture", err)
		return nil
	}
	return g
}

func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, id string) {
	samples, err := h.store.Samples().GetByGestureID(id)
	if err != nil {
		internalError(w, "Failed to list samples", err)
		return
	}

	resp := listSamplesResponse{Samples: make([]sampleResponse, 0, len(samples))}
	for _, s := range samples {
		resp.Samples = append(resp.Samples, sampleResponse{
			ID:          s.ID,
			GestureID:   s.GestureID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, id string) {
	if h.lookup(w, id) == nil {
		return
	}

	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	if err := h.store.Samples().Create(id, req.Samples); err != nil {
		internalError(w, "Failed to save samples", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (h *SamplesHandler) clear(w http.ResponseWriter, r *http.Request, id string) {
	if h.lookup(w, id) == nil {
		return
	}
	if err := h.store.Samples().DeleteByGestureID(id); err != nil {
		internalError(w, "Failed to delete samples", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// train averages the recorded samples into the gesture's template and
// stores it.
func (h *SamplesHandler) train(w http.ResponseWriter, r *http.Request, id string) {
	g := h.lookup(w, id)
	if g == nil {
		return
	}

	samples, err := h.store.Samples().GetByGestureID(id)
	if err != nil {
		internalError(w, "Failed to load samples", err)
		return
	}
	raw := make([]json.RawMessage, len(samples))
	for i, s := range samples {
		raw[i] = s.Data
	}

	tmpl, err := h.trainer.Train(g.ID, g.Name, gesture.Type(g.Type), g.Tolerance, raw)
	if errors.Is(err, gesture.ErrNoSamples) {
		writeError(w, http.StatusBadRequest, "Record samples before training")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	repo := h.store.Gestures()
	points := 0
	if tmpl.Type == gesture.TypeStatic {
		lms := make([]store.Landmark, len(tmpl.Landmarks))
		for i, p := range tmpl.Landmarks {
			lms[i] = store.Landmark{Index: i, X: p.X, Y: p.Y, Z: p.Z}
		}
		err = repo.SetLandmarks(id, lms)
		points = len(lms)
	} else {
		path := make([]store.PathPoint, len(tmpl.Path))
		for i, p := range tmpl.Path {
			path[i] = store.PathPoint{Sequence: i, X: p.X, Y: p.Y, TimestampMs: p.Timestamp}
		}
		err = repo.SetPath(id, path)
		points = len(path)
	}
	if err != nil {
		internalError(w, "Failed to store template", err)
		return
	}

	h.reload.run()
	writeJSON(w, http.StatusOK, trainResponse{
		GestureID: id,
		Type:      string(tmpl.Type),
		Samples:   len(samples),
		Points:    points,
	})
}
