package api

import (
	"fmt"
	"net/http"

	"scentline/pkg/cone"
	"scentline/pkg/geo"
	"scentline/pkg/units"
)

// ConeHandler computes quick operational cones.
type ConeHandler struct {
	defaults cone.Settings
}

// NewConeHandler creates a cone handler with the configured default settings.
func NewConeHandler(defaults cone.Settings) *ConeHandler {
	return &ConeHandler{defaults: defaults}
}

// ConeRequest is the compute request body. Settings fields left out fall
// back to the configured defaults.
type ConeRequest struct {
	Source           geo.Point       `json:"source"`
	WindFromDeg      float64         `json:"wind_from_deg"`
	WindSpeedKmh     float64         `json:"wind_speed_kmh"`
	TimeHorizonHours *float64        `json:"time_horizon_hours,omitempty"`
	SpreadDeg        *float64        `json:"spread_deg,omitempty"`
	Stability        *cone.Stability `json:"stability,omitempty"`
	BandMinutes      []float64       `json:"band_minutes,omitempty"`
}

// ConeResponse carries the polygon with its derived numbers.
type ConeResponse struct {
	Polygon      []geo.Point  `json:"polygon"`
	Bands        []cone.Band  `json:"bands"`
	SpreadHalf   float64      `json:"spread_half_deg"`
	DistanceM    units.Meters `json:"distance_m"`
	WindFromDeg  float64      `json:"wind_from_deg"`
	WindSpeedKmh float64      `json:"wind_speed_kmh"`
}

// HandleCompute handles POST /api/cone.
func (h *ConeHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	var req ConeRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if err := validatePoint(req.Source); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	settings := h.defaults
	if req.TimeHorizonHours != nil {
		settings.TimeHorizonHours = *req.TimeHorizonHours
	}
	if req.SpreadDeg != nil {
		settings.SpreadDeg = *req.SpreadDeg
	}
	if req.Stability != nil {
		switch *req.Stability {
		case cone.StabilityLow, cone.StabilityMedium, cone.StabilityHigh:
			settings.Stability = *req.Stability
		default:
			http.Error(w, fmt.Sprintf("unknown stability %q", *req.Stability), http.StatusBadRequest)
			return
		}
	}

	wind := units.Kmh(req.WindSpeedKmh)
	resp := ConeResponse{
		Polygon:      cone.BuildPolygon(req.Source, req.WindFromDeg, wind, settings),
		Bands:        cone.DistanceBands(req.Source, req.WindFromDeg, wind, settings, req.BandMinutes),
		SpreadHalf:   cone.SpreadHalfDeg(settings),
		DistanceM:    cone.EstimateScentDistanceMeters(wind, settings.TimeHorizonHours*60, settings.Stability),
		WindFromDeg:  req.WindFromDeg,
		WindSpeedKmh: req.WindSpeedKmh,
	}
	writeJSON(w, http.StatusOK, resp)
}
