package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentline/pkg/cone"
	"scentline/pkg/envelope"
)

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", target, bytes.NewReader(data))
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestEnvelopeHandler(t *testing.T) {
	h := NewEnvelopeHandler(nil, nil)
	h.now = func() time.Time { return time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC) }

	w := postJSON(t, h.HandleCompute, "/api/envelope", EnvelopeRequest{
		LKP:          geoPoint(47.6, -122.3),
		LKPTime:      "2026-03-14T21:30:00Z",
		WindFromDeg:  270,
		WindSpeedMph: 8,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var out envelope.Output
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, 30.0, out.ElapsedMinutes)
	assert.Greater(t, out.Confidence, 0)
	assert.NotEmpty(t, out.Band)
	assert.Len(t, out.StartPoints, 3)
	assert.Len(t, out.Core.Ring, 30)
	assert.Len(t, out.Residual.Ring, 38)
}

func TestEnvelopeHandlerConditionsPatch(t *testing.T) {
	h := NewEnvelopeHandler(nil, nil)

	forest := envelope.TerrainForest
	humidity := 80.0
	w := postJSON(t, h.HandleCompute, "/api/envelope", EnvelopeRequest{
		LKP:          geoPoint(47.6, -122.3),
		LKPTime:      time.Now().Add(-20 * time.Minute).UTC().Format(time.RFC3339),
		WindFromDeg:  270,
		WindSpeedMph: 8,
		Conditions:   &ConditionsPatch{Terrain: &forest, HumidityPct: &humidity},
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestEnvelopeHandlerBadInput(t *testing.T) {
	h := NewEnvelopeHandler(nil, nil)

	tests := []struct {
		name string
		req  EnvelopeRequest
	}{
		{"bad lkp_time", EnvelopeRequest{LKP: geoPoint(47.6, -122.3), LKPTime: "yesterday evening"}},
		{"bad now", EnvelopeRequest{LKP: geoPoint(47.6, -122.3), LKPTime: "2026-03-14T21:30:00Z", Now: "later"}},
		{"bad coordinates", EnvelopeRequest{LKP: geoPoint(95, 0), LKPTime: "2026-03-14T21:30:00Z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h.HandleCompute, "/api/envelope", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	t.Run("bad cloud value", func(t *testing.T) {
		bad := envelope.Cloud("foggy")
		w := postJSON(t, h.HandleCompute, "/api/envelope", EnvelopeRequest{
			LKP:        geoPoint(47.6, -122.3),
			LKPTime:    "2026-03-14T21:30:00Z",
			Conditions: &ConditionsPatch{Cloud: &bad},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/envelope", bytes.NewReader([]byte(`{"lkp_tmie":"x"}`)))
		w := httptest.NewRecorder()
		h.HandleCompute(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEnvelopeHandlerAutoWithoutServices(t *testing.T) {
	h := NewEnvelopeHandler(nil, nil)

	w := postJSON(t, h.HandleCompute, "/api/envelope", EnvelopeRequest{
		LKP:         geoPoint(47.6, -122.3),
		LKPTime:     "2026-03-14T21:30:00Z",
		AutoWeather: true,
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = postJSON(t, h.HandleCompute, "/api/envelope", EnvelopeRequest{
		LKP:         geoPoint(47.6, -122.3),
		LKPTime:     "2026-03-14T21:30:00Z",
		AutoTerrain: true,
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestConeHandler(t *testing.T) {
	h := NewConeHandler(cone.Settings{TimeHorizonHours: 2, SpreadDeg: 40, Stability: cone.StabilityMedium})

	w := postJSON(t, h.HandleCompute, "/api/cone", ConeRequest{
		Source:       geoPoint(47.6, -122.3),
		WindFromDeg:  270,
		WindSpeedKmh: 10,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ConeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Polygon, 25)
	assert.Len(t, resp.Bands, 3, "default 15/30/60 ticks")
	assert.Greater(t, float64(resp.DistanceM), 0.0)
}

func TestConeHandlerSettingsOverride(t *testing.T) {
	h := NewConeHandler(cone.Settings{TimeHorizonHours: 2, SpreadDeg: 40, Stability: cone.StabilityMedium})

	spread := 60.0
	low := cone.StabilityLow
	w := postJSON(t, h.HandleCompute, "/api/cone", ConeRequest{
		Source:       geoPoint(47.6, -122.3),
		WindFromDeg:  0,
		WindSpeedKmh: 10,
		SpreadDeg:    &spread,
		Stability:    &low,
		BandMinutes:  []float64{10, 20},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ConeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 60.0/2*1.25, resp.SpreadHalf, 1e-9)
	assert.Len(t, resp.Bands, 2)
}

func TestConeHandlerBadStability(t *testing.T) {
	h := NewConeHandler(cone.Settings{TimeHorizonHours: 2, SpreadDeg: 40, Stability: cone.StabilityMedium})

	bad := cone.Stability("wild")
	w := postJSON(t, h.HandleCompute, "/api/cone", ConeRequest{
		Source:    geoPoint(47.6, -122.3),
		Stability: &bad,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandler(t *testing.T) {
	h := NewMetricsHandler()

	w := postJSON(t, h.HandleCompute, "/api/track-metrics", MetricsRequest{})
	require.Equal(t, http.StatusOK, w.Code)

	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.EqualValues(t, 0, m["avg_separation_m"], "empty tracks come back zeroed")
}
