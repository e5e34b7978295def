package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentline/pkg/cone"
	"scentline/pkg/db"
	"scentline/pkg/playback"
	"scentline/pkg/session"
	"scentline/pkg/store"
	"scentline/pkg/track"
	"scentline/pkg/tracker"
)

func newTestServer(t *testing.T) (*http.Server, store.Store, *session.Manager) {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "server_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	st := store.NewSQLiteStore(d)
	mgr := session.NewManager(1, 5)
	settings := cone.Settings{TimeHorizonHours: 2, SpreadDeg: 40, Stability: cone.StabilityMedium}

	srv := NewServer("127.0.0.1:0", Handlers{
		Envelope: NewEnvelopeHandler(nil, nil),
		Cone:     NewConeHandler(settings),
		Metrics:  NewMetricsHandler(),
		Sessions: NewSessionHandler(mgr, st),
		Profiles: NewProfileHandler(st),
		Export:   NewExportHandler(st),
		Coverage: NewCoverageHandler(st),
		Playback: NewPlaybackHandler(playback.NewManager(), st),
		Stats:    NewStatsHandler(tracker.New(), mgr),
		Live:     NewLiveHandler(mgr, settings),
	}, func() {})
	return srv, st, mgr
}

func TestHealthAndVersion(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/version", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	var v map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.NotEmpty(t, v["version"])
}

func TestRouteMethods(t *testing.T) {
	srv, _, _ := newTestServer(t)

	// Envelope is POST only
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/envelope", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _, mgr := newTestServer(t)
	mgr.Start("op", geoPoint(47.6, -122.3), time.Now(), 270, 8)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/stats", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Session.Active)
	assert.Equal(t, "op", resp.Session.SessionName)
}

func seedPersistedSession(t *testing.T, st store.Store) string {
	t.Helper()
	ctx := context.Background()
	sess := &store.Session{
		ID:           "sess-1",
		Name:         "persisted",
		LKPLat:       47.6,
		LKPLon:       -122.3,
		LKPTime:      time.Now().Add(-30 * time.Minute).UTC(),
		WindFromDeg:  270,
		WindSpeedMph: 8,
	}
	require.NoError(t, st.SaveSession(ctx, sess))

	pts := make([]track.PointSample, 4)
	for i := range pts {
		pts[i] = track.PointSample{Lat: 47.6 + float64(i)*0.001, Lon: -122.3}
	}
	_, err := st.SaveTrack(ctx, "sess-1", store.TrackDog, pts)
	require.NoError(t, err)
	return "sess-1"
}

func TestExportGeoJSON(t *testing.T) {
	srv, st, _ := newTestServer(t)
	id := seedPersistedSession(t, st)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/export/geojson?session="+id, http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	require.NoError(t, err)

	kinds := map[string]int{}
	for _, f := range fc.Features {
		kinds[f.Properties.MustString("kind", "")]++
	}
	assert.Equal(t, 1, kinds["lkp"])
	assert.Equal(t, 1, kinds["track"])
	assert.Equal(t, 3, kinds["envelope"])
	assert.Equal(t, 3, kinds["start_point"])
}

func TestExportMissingSession(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/export/geojson?session=nope", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/export/geojson", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGPXImport(t *testing.T) {
	srv, st, _ := newTestServer(t)
	id := seedPersistedSession(t, st)

	gpx := `<?xml version="1.0"?>
<gpx version="1.1"><trk><trkseg>
<trkpt lat="47.60" lon="-122.30"><time>2026-03-14T10:00:00Z</time></trkpt>
<trkpt lat="47.61" lon="-122.31"></trkpt>
</trkseg></trk></gpx>`

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sessions/"+id+"/import/gpx?kind=laid", strings.NewReader(gpx))
	srv.Handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp["points"])

	rec, err := st.GetTrack(context.Background(), id, store.TrackLaid)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.Points, 2)
}

func TestGPXImportBadBody(t *testing.T) {
	srv, st, _ := newTestServer(t)
	id := seedPersistedSession(t, st)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sessions/"+id+"/import/gpx", strings.NewReader("not xml at all <"))
	srv.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoverageEndpoint(t *testing.T) {
	srv, st, _ := newTestServer(t)
	id := seedPersistedSession(t, st)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/coverage?session="+id, http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var resp CoverageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, track.DefaultCoverageResolution, resp.Resolution)
	assert.NotEmpty(t, resp.Cells)

	// Coarser resolution merges cells
	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/coverage?session="+id+"&res=5", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)
	var coarse CoverageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &coarse))
	assert.LessOrEqual(t, len(coarse.Cells), len(resp.Cells))
}

func TestCoverageBadInput(t *testing.T) {
	srv, st, _ := newTestServer(t)
	id := seedPersistedSession(t, st)

	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/coverage", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/coverage?session="+id+"&res=99", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/coverage?session="+id+"&kind=laid", http.NoBody))
	assert.Equal(t, http.StatusNotFound, w.Code, "no laid track recorded")
}

func TestPlaybackEndpoints(t *testing.T) {
	srv, st, _ := newTestServer(t)
	id := seedPersistedSession(t, st)

	body, _ := json.Marshal(LoadRequest{SessionID: id})
	w := httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/playback/load", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/playback/state?progress=1", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var state playback.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, 3, state.Dog.Index)

	w = httptest.NewRecorder()
	srv.Handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/playback/state?progress=2", http.NoBody))
	assert.Equal(t, http.StatusConflict, w.Code)
}
