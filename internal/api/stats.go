package api

import (
	"net/http"

	"scentline/pkg/session"
	"scentline/pkg/store"
	"scentline/pkg/tracker"
)

// StatsHandler reports provider usage counters and live session state.
type StatsHandler struct {
	tracker *tracker.Tracker
	mgr     *session.Manager
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(t *tracker.Tracker, mgr *session.Manager) *StatsHandler {
	return &StatsHandler{tracker: t, mgr: mgr}
}

// ProviderStatsDTO is the wire form of one provider's counters.
type ProviderStatsDTO struct {
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	HitRate     int64 `json:"hit_rate"`
}

// SessionStats describes the active operation.
type SessionStats struct {
	Active      bool   `json:"active"`
	SessionID   string `json:"session_id,omitempty"`
	SessionName string `json:"session_name,omitempty"`
	LaidPoints  int    `json:"laid_points"`
	DogPoints   int    `json:"dog_points"`
}

// StatsResponse is the /api/stats payload.
type StatsResponse struct {
	Session   SessionStats                `json:"session"`
	Providers map[string]ProviderStatsDTO `json:"providers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Providers: make(map[string]ProviderStatsDTO),
	}

	if sess := h.mgr.Current(); sess != nil {
		resp.Session = SessionStats{
			Active:      true,
			SessionID:   sess.ID,
			SessionName: sess.Name,
			LaidPoints:  len(h.mgr.Samples(store.TrackLaid)),
			DogPoints:   len(h.mgr.Samples(store.TrackDog)),
		}
	}

	for provider, stats := range h.tracker.Snapshot() {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[provider] = ProviderStatsDTO{
			CacheHits:   stats.CacheHits,
			CacheMisses: stats.CacheMisses,
			APISuccess:  stats.APISuccess,
			APIFailures: stats.APIFailures,
			HitRate:     hitRate,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
