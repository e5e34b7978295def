package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"scentline/pkg/weather"
)

// WeatherHandler exposes current conditions.
type WeatherHandler struct {
	svc *weather.Service
}

// NewWeatherHandler creates a weather handler.
func NewWeatherHandler(svc *weather.Service) *WeatherHandler {
	return &WeatherHandler{svc: svc}
}

// Handle handles GET /api/weather.
func (h *WeatherHandler) Handle(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := queryLatLon(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	obs, err := h.svc.Observe(r.Context(), lat, lon)
	if err != nil {
		slog.Error("Weather lookup failed", "lat", lat, "lon", lon, "error", err)
		http.Error(w, fmt.Sprintf("weather lookup failed: %v", err), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

func queryLatLon(r *http.Request) (lat, lon float64, err error) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("invalid lat/lon")
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("coordinates out of bounds: %v, %v", lat, lon)
	}
	return lat, lon, nil
}
