package api

import (
	"log/slog"
	"net/http"

	"scentline/pkg/envelope"
	"scentline/pkg/terrain"
)

// TerrainHandler exposes land-cover class and elevation for a point.
type TerrainHandler struct {
	landcover *terrain.Classifier
	elevation terrain.ElevationGetter
}

// NewTerrainHandler creates a terrain handler. Either dependency may be nil
// when not configured.
func NewTerrainHandler(lc *terrain.Classifier, elev terrain.ElevationGetter) *TerrainHandler {
	return &TerrainHandler{landcover: lc, elevation: elev}
}

// TerrainResponse describes the ground at a point. ElevationM is omitted
// when the elevation backend is unavailable.
type TerrainResponse struct {
	Terrain    envelope.Terrain `json:"terrain"`
	ElevationM *float64         `json:"elevation_m,omitempty"`
}

// Handle handles GET /api/terrain.
func (h *TerrainHandler) Handle(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryLatLon(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp := TerrainResponse{Terrain: envelope.TerrainMixed}
	if h.landcover != nil {
		resp.Terrain = h.landcover.Classify(lat, lon)
	}
	if h.elevation != nil {
		if elev, err := h.elevation.Elevation(r.Context(), lat, lon); err == nil {
			resp.ElevationM = &elev
		} else {
			slog.Warn("Elevation lookup failed", "lat", lat, "lon", lon, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
