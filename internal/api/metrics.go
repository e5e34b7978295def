package api

import (
	"fmt"
	"net/http"

	"scentline/pkg/geo"
	"scentline/pkg/track"
)

// MetricsHandler scores a dog run against a laid trail.
type MetricsHandler struct{}

// NewMetricsHandler creates a metrics handler.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// MetricsRequest is the track comparison body. Cone is optional; without it
// the occupancy and transition fields stay zero.
type MetricsRequest struct {
	Laid []track.PointSample `json:"laid"`
	Dog  []track.PointSample `json:"dog"`
	Cone []geo.Point         `json:"cone,omitempty"`
}

// HandleCompute handles POST /api/track-metrics.
func (h *MetricsHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, track.Compute(req.Laid, req.Dog, req.Cone))
}
