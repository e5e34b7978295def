package api

import (
	"fmt"
	"net/http"
	"strconv"

	"scentline/pkg/playback"
	"scentline/pkg/store"
)

// PlaybackHandler drives after-action replays.
type PlaybackHandler struct {
	mgr   *playback.Manager
	store store.Store
}

// NewPlaybackHandler creates a playback handler.
func NewPlaybackHandler(mgr *playback.Manager, st store.Store) *PlaybackHandler {
	return &PlaybackHandler{mgr: mgr, store: st}
}

// LoadRequest selects the session to replay.
type LoadRequest struct {
	SessionID string `json:"session_id"`
}

// HandleLoad handles POST /api/playback/load.
func (h *PlaybackHandler) HandleLoad(w http.ResponseWriter, r *http.Request) {
	var req LoadRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	if err := h.mgr.Load(r.Context(), h.store, req.SessionID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	state, err := h.mgr.State()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// HandleState handles GET /api/playback/state. With a progress query
// parameter it seeks first; without it it reports the current cursor.
func (h *PlaybackHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	var (
		state *playback.State
		err   error
	)
	if s := r.URL.Query().Get("progress"); s != "" {
		progress, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			http.Error(w, "invalid progress", http.StatusBadRequest)
			return
		}
		state, err = h.mgr.Seek(progress)
	} else {
		state, err = h.mgr.State()
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
