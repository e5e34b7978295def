package api

import (
	"fmt"
	"net/http"
	"strconv"

	"scentline/pkg/store"
	"scentline/pkg/track"
)

// CoverageHandler reports the searched area of a recorded track as H3 cells.
type CoverageHandler struct {
	store store.Store
}

// NewCoverageHandler creates a coverage handler.
func NewCoverageHandler(st store.Store) *CoverageHandler {
	return &CoverageHandler{store: st}
}

// CoverageResponse lists the visited cells in first-visit order.
type CoverageResponse struct {
	SessionID  string   `json:"session_id"`
	Kind       string   `json:"kind"`
	Resolution int      `json:"resolution"`
	Cells      []string `json:"cells"`
}

// Handle handles GET /api/coverage.
func (h *CoverageHandler) Handle(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		http.Error(w, "session query parameter required", http.StatusBadRequest)
		return
	}
	kind := store.TrackKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = store.TrackDog
	}
	if kind != store.TrackLaid && kind != store.TrackDog {
		http.Error(w, fmt.Sprintf("unknown track kind %q", kind), http.StatusBadRequest)
		return
	}

	res := track.DefaultCoverageResolution
	if s := r.URL.Query().Get("res"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 || v > 15 {
			http.Error(w, "res must be an integer in [0, 15]", http.StatusBadRequest)
			return
		}
		res = v
	}

	rec, err := h.store.GetTrack(r.Context(), id, kind)
	if err != nil {
		http.Error(w, "failed to load track", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "no track recorded", http.StatusNotFound)
		return
	}

	cells, err := track.CoverageCells(rec.Points, res)
	if err != nil {
		http.Error(w, fmt.Sprintf("coverage failed: %v", err), http.StatusInternalServerError)
		return
	}

	resp := CoverageResponse{
		SessionID:  id,
		Kind:       string(kind),
		Resolution: res,
		Cells:      make([]string, len(cells)),
	}
	for i, c := range cells {
		resp.Cells[i] = c.String()
	}
	writeJSON(w, http.StatusOK, resp)
}
