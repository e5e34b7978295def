package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scentline/pkg/version"
)

// Handlers bundles the endpoint handlers the server wires up. Optional
// collaborators (weather, terrain, live) may be nil; their routes are then
// not registered.
type Handlers struct {
	Envelope *EnvelopeHandler
	Cone     *ConeHandler
	Metrics  *MetricsHandler
	Weather  *WeatherHandler
	Terrain  *TerrainHandler
	Sessions *SessionHandler
	Profiles *ProfileHandler
	Export   *ExportHandler
	Coverage *CoverageHandler
	Playback *PlaybackHandler
	Live     *LiveHandler
	Stats    *StatsHandler
}

// NewServer creates and configures the HTTP server. shutdown is called when
// a client posts to the shutdown endpoint.
func NewServer(addr string, h Handlers, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Model endpoints
	mux.HandleFunc("POST /api/envelope", h.Envelope.HandleCompute)
	mux.HandleFunc("POST /api/cone", h.Cone.HandleCompute)
	mux.HandleFunc("POST /api/track-metrics", h.Metrics.HandleCompute)

	// 3. Environment lookups
	if h.Weather != nil {
		mux.HandleFunc("GET /api/weather", h.Weather.Handle)
	}
	if h.Terrain != nil {
		mux.HandleFunc("GET /api/terrain", h.Terrain.Handle)
	}

	// 4. Sessions, tracks, profiles
	mux.HandleFunc("POST /api/sessions", h.Sessions.HandleStart)
	mux.HandleFunc("GET /api/sessions", h.Sessions.HandleList)
	mux.HandleFunc("GET /api/sessions/current", h.Sessions.HandleCurrent)
	mux.HandleFunc("POST /api/sessions/current/fix", h.Sessions.HandleFix)
	mux.HandleFunc("POST /api/sessions/current/wind", h.Sessions.HandleWind)
	mux.HandleFunc("POST /api/sessions/current/end", h.Sessions.HandleEnd)
	mux.HandleFunc("GET /api/sessions/{id}", h.Sessions.HandleGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.Sessions.HandleDelete)
	mux.HandleFunc("POST /api/sessions/{id}/tracks", h.Sessions.HandleTrackUpload)
	mux.HandleFunc("GET /api/sessions/{id}/tracks", h.Sessions.HandleTrackList)
	mux.HandleFunc("POST /api/sessions/{id}/import/gpx", h.Export.HandleGPXImport)
	mux.HandleFunc("POST /api/profiles", h.Profiles.HandleSave)
	mux.HandleFunc("GET /api/profiles", h.Profiles.HandleList)

	// 5. Export, coverage, replay
	mux.HandleFunc("GET /api/export/geojson", h.Export.HandleGeoJSON)
	mux.HandleFunc("GET /api/coverage", h.Coverage.Handle)
	mux.HandleFunc("POST /api/playback/load", h.Playback.HandleLoad)
	mux.HandleFunc("GET /api/playback/state", h.Playback.HandleState)

	// 6. Live recorder socket
	if h.Live != nil {
		mux.HandleFunc("GET /api/live", h.Live.Handle)
	}

	// 7. Stats
	mux.Handle("GET /api/stats", h.Stats)

	// 8. Shutdown endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}
