package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"scentline/pkg/store"
)

// ProfileHandler manages dog profiles.
type ProfileHandler struct {
	store store.ProfileStore
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(st store.ProfileStore) *ProfileHandler {
	return &ProfileHandler{store: st}
}

// ProfileRequest creates or updates a dog profile.
type ProfileRequest struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Handler string `json:"handler,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// HandleSave handles POST /api/profiles.
func (h *ProfileHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	p := &store.Profile{ID: req.ID, Name: req.Name, Handler: req.Handler, Notes: req.Notes}
	if err := h.store.SaveProfile(r.Context(), p); err != nil {
		http.Error(w, "failed to save profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleList handles GET /api/profiles.
func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListProfiles(r.Context())
	if err != nil {
		http.Error(w, "failed to list profiles", http.StatusInternalServerError)
		return
	}
	if profiles == nil {
		profiles = []*store.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}
