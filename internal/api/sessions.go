package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scentline/pkg/geo"
	"scentline/pkg/session"
	"scentline/pkg/store"
	"scentline/pkg/track"
)

// SessionHandler manages the live operation and its persisted history.
type SessionHandler struct {
	mgr   *session.Manager
	store store.Store
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(mgr *session.Manager, st store.Store) *SessionHandler {
	return &SessionHandler{mgr: mgr, store: st}
}

// StartRequest begins a new operation.
type StartRequest struct {
	Name         string    `json:"name"`
	LKP          geo.Point `json:"lkp"`
	LKPTime      string    `json:"lkp_time"`
	WindFromDeg  float64   `json:"wind_from_deg"`
	WindSpeedMph float64   `json:"wind_speed_mph"`
}

// HandleStart handles POST /api/sessions.
func (h *SessionHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	lkpTime, err := time.Parse(time.RFC3339, req.LKPTime)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid lkp_time: %v", err), http.StatusBadRequest)
		return
	}
	if err := validatePoint(req.LKP); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess := h.mgr.Start(req.Name, req.LKP, lkpTime, req.WindFromDeg, req.WindSpeedMph)
	if err := h.mgr.Save(r.Context(), h.store); err != nil {
		slog.Error("Session: failed to persist new session", "error", err)
		http.Error(w, "failed to persist session", http.StatusInternalServerError)
		return
	}
	slog.Info("Session: started", "id", sess.ID, "name", sess.Name)
	writeJSON(w, http.StatusCreated, sess)
}

// HandleList handles GET /api/sessions.
func (h *SessionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions(r.Context())
	if err != nil {
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// HandleCurrent handles GET /api/sessions/current.
func (h *SessionHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	cur := h.mgr.Current()
	if cur == nil {
		http.Error(w, "no active session", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, cur)
}

// HandleGet handles GET /api/sessions/{id}.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// HandleDelete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteSession(r.Context(), id); err != nil {
		http.Error(w, "failed to delete session", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FixRequest records one GPS fix on the live operation.
type FixRequest struct {
	Kind     store.TrackKind `json:"kind"`
	Lat      float64         `json:"lat"`
	Lon      float64         `json:"lon"`
	Time     *time.Time      `json:"time,omitempty"`
	SpeedKmh *float64        `json:"speed_kmh,omitempty"`
}

// FixResponse reports the jitter-filter verdict and the smoothed heading.
type FixResponse struct {
	Accepted   bool    `json:"accepted"`
	HeadingDeg float64 `json:"heading_deg"`
}

// HandleFix handles POST /api/sessions/current/fix.
func (h *SessionHandler) HandleFix(w http.ResponseWriter, r *http.Request) {
	var req FixRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Kind != store.TrackLaid && req.Kind != store.TrackDog {
		http.Error(w, fmt.Sprintf("unknown track kind %q", req.Kind), http.StatusBadRequest)
		return
	}

	accepted, heading, err := h.mgr.AddFix(req.Kind, track.PointSample{
		Lat: req.Lat, Lon: req.Lon, Time: req.Time, SpeedKmh: req.SpeedKmh,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, FixResponse{Accepted: accepted, HeadingDeg: heading})
}

// WindRequest updates the live wind reading.
type WindRequest struct {
	FromDeg  float64 `json:"from_deg"`
	SpeedMph float64 `json:"speed_mph"`
}

// HandleWind handles POST /api/sessions/current/wind.
func (h *SessionHandler) HandleWind(w http.ResponseWriter, r *http.Request) {
	var req WindRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if err := h.mgr.SetWind(req.FromDeg, req.SpeedMph); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleEnd handles POST /api/sessions/current/end.
func (h *SessionHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.End(r.Context(), h.store); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TrackUploadRequest stores a complete track on a session.
type TrackUploadRequest struct {
	Kind   store.TrackKind     `json:"kind"`
	Points []track.PointSample `json:"points"`
}

// HandleTrackUpload handles POST /api/sessions/{id}/tracks.
func (h *SessionHandler) HandleTrackUpload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req TrackUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Kind != store.TrackLaid && req.Kind != store.TrackDog {
		http.Error(w, fmt.Sprintf("unknown track kind %q", req.Kind), http.StatusBadRequest)
		return
	}
	if len(req.Points) == 0 {
		http.Error(w, "empty track", http.StatusBadRequest)
		return
	}

	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	trackID, err := h.store.SaveTrack(r.Context(), id, req.Kind, req.Points)
	if err != nil {
		http.Error(w, "failed to save track", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": trackID, "points": len(req.Points)})
}

// HandleTrackList handles GET /api/sessions/{id}/tracks.
func (h *SessionHandler) HandleTrackList(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tracks, err := h.store.GetTracks(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to list tracks", http.StatusInternalServerError)
		return
	}
	if tracks == nil {
		tracks = []*store.TrackRecord{}
	}
	writeJSON(w, http.StatusOK, tracks)
}
