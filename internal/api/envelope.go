package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scentline/pkg/envelope"
	"scentline/pkg/geo"
	"scentline/pkg/terrain"
	"scentline/pkg/units"
	"scentline/pkg/weather"
)

// EnvelopeHandler computes probability envelopes.
type EnvelopeHandler struct {
	weather   *weather.Service
	landcover *terrain.Classifier
	now       func() time.Time
}

// NewEnvelopeHandler creates an envelope handler. weather and landcover may
// be nil; auto lookups then fail with an explicit error instead of guessing.
func NewEnvelopeHandler(w *weather.Service, lc *terrain.Classifier) *EnvelopeHandler {
	return &EnvelopeHandler{weather: w, landcover: lc, now: time.Now}
}

// ConditionsPatch is a partial conditions override. Missing fields keep the
// base value (defaults, or the weather observation when auto_weather is set).
type ConditionsPatch struct {
	TemperatureF *float64            `json:"temperature_f,omitempty"`
	HumidityPct  *float64            `json:"humidity_pct,omitempty"`
	Cloud        *envelope.Cloud     `json:"cloud,omitempty"`
	Precip       *envelope.Precip    `json:"precip,omitempty"`
	RecentRain   *bool               `json:"recent_rain,omitempty"`
	Terrain      *envelope.Terrain   `json:"terrain,omitempty"`
	Stability    *envelope.Stability `json:"stability,omitempty"`
}

// EnvelopeRequest is the compute request body.
type EnvelopeRequest struct {
	LKP          geo.Point        `json:"lkp"`
	LKPTime      string           `json:"lkp_time"`
	Now          string           `json:"now,omitempty"`
	WindFromDeg  float64          `json:"wind_from_deg"`
	WindSpeedMph float64          `json:"wind_speed_mph"`
	Conditions   *ConditionsPatch `json:"conditions,omitempty"`
	AutoWeather  bool             `json:"auto_weather,omitempty"`
	AutoTerrain  bool             `json:"auto_terrain,omitempty"`
}

// HandleCompute handles POST /api/envelope.
func (h *EnvelopeHandler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	var req EnvelopeRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	lkpTime, err := time.Parse(time.RFC3339, req.LKPTime)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid lkp_time: %v", err), http.StatusBadRequest)
		return
	}
	now := h.now()
	if req.Now != "" {
		if now, err = time.Parse(time.RFC3339, req.Now); err != nil {
			http.Error(w, fmt.Sprintf("invalid now: %v", err), http.StatusBadRequest)
			return
		}
	}
	if err := validatePoint(req.LKP); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cond := envelope.DefaultConditions()
	windFrom := req.WindFromDeg
	windSpeed := req.WindSpeedMph

	if req.AutoWeather {
		if h.weather == nil {
			http.Error(w, "weather service not configured", http.StatusServiceUnavailable)
			return
		}
		obs, err := h.weather.Observe(r.Context(), req.LKP.Lat, req.LKP.Lon)
		if err != nil {
			slog.Error("Envelope: weather lookup failed", "error", err)
			http.Error(w, fmt.Sprintf("weather lookup failed: %v", err), http.StatusBadGateway)
			return
		}
		cond = obs.Conditions(cond)
		windFrom = obs.WindFromDeg
		windSpeed = obs.WindSpeedMph
	}
	if req.AutoTerrain {
		if h.landcover == nil {
			http.Error(w, "land-cover layers not configured", http.StatusServiceUnavailable)
			return
		}
		cond.Terrain = h.landcover.Classify(req.LKP.Lat, req.LKP.Lon)
	}

	if req.Conditions != nil {
		if err := req.Conditions.apply(&cond); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	out := envelope.Compute(envelope.Inputs{
		Source:       req.LKP,
		LKPTime:      lkpTime,
		Now:          now,
		WindFromDeg:  windFrom,
		WindSpeedMph: units.Mph(windSpeed),
		Conditions:   cond,
	})
	writeJSON(w, http.StatusOK, out)
}

func (p *ConditionsPatch) apply(c *envelope.Conditions) error {
	if p.TemperatureF != nil {
		c.TemperatureF = *p.TemperatureF
	}
	if p.HumidityPct != nil {
		if *p.HumidityPct < 0 || *p.HumidityPct > 100 {
			return fmt.Errorf("humidity_pct %v out of range [0, 100]", *p.HumidityPct)
		}
		c.HumidityPct = *p.HumidityPct
	}
	if p.Cloud != nil {
		switch *p.Cloud {
		case envelope.CloudClear, envelope.CloudPartly, envelope.CloudOvercast, envelope.CloudNight:
			c.Cloud = *p.Cloud
		default:
			return fmt.Errorf("unknown cloud %q", *p.Cloud)
		}
	}
	if p.Precip != nil {
		switch *p.Precip {
		case envelope.PrecipNone, envelope.PrecipLight, envelope.PrecipModerate, envelope.PrecipHeavy:
			c.Precip = *p.Precip
		default:
			return fmt.Errorf("unknown precip %q", *p.Precip)
		}
	}
	if p.RecentRain != nil {
		c.RecentRain = *p.RecentRain
	}
	if p.Terrain != nil {
		switch *p.Terrain {
		case envelope.TerrainOpen, envelope.TerrainForest, envelope.TerrainUrban,
			envelope.TerrainSwamp, envelope.TerrainBeach, envelope.TerrainMixed:
			c.Terrain = *p.Terrain
		default:
			return fmt.Errorf("unknown terrain %q", *p.Terrain)
		}
	}
	if p.Stability != nil {
		switch *p.Stability {
		case envelope.StabilityStable, envelope.StabilityNeutral, envelope.StabilityConvective:
			c.Stability = *p.Stability
		default:
			return fmt.Errorf("unknown stability %q", *p.Stability)
		}
	}
	return nil
}

func validatePoint(p geo.Point) error {
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("coordinates out of bounds: %v, %v", p.Lat, p.Lon)
	}
	return nil
}
