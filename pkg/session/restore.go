package session

import (
	"context"
	"log/slog"
	"time"

	"scentline/pkg/geo"
	"scentline/pkg/store"
	"scentline/pkg/track"
)

const stateKeyCurrentSession = "current_session"

// restoreMaxAge limits how stale a persisted operation may be before we
// start fresh instead. Scent work does not survive a day anyway.
const restoreMaxAge = 24 * time.Hour

// TryRestore rehydrates the most recent persisted operation, if one exists
// and is recent enough. It returns true when a session was restored.
func TryRestore(ctx context.Context, st store.Store, mgr *Manager) bool {
	id, err := st.GetState(ctx, stateKeyCurrentSession)
	if err != nil {
		slog.Error("Session: Failed to read persisted session id", "error", err)
		return false
	}
	if id == "" {
		return false
	}

	sess, err := st.GetSession(ctx, id)
	if err != nil {
		slog.Error("Session: Failed to load persisted session", "id", id, "error", err)
		return false
	}
	if sess == nil {
		slog.Info("Session: Persisted session no longer exists, starting fresh", "id", id)
		return false
	}
	if time.Since(sess.CreatedAt) > restoreMaxAge {
		slog.Info("Session: Persisted session too old, starting fresh", "id", id, "created_at", sess.CreatedAt)
		return false
	}

	tracks, err := st.GetTracks(ctx, id)
	if err != nil {
		slog.Error("Session: Failed to load persisted tracks", "id", id, "error", err)
		return false
	}

	mgr.restore(sess, tracks)
	slog.Info("Session: Restored persisted operation", "id", id, "name", sess.Name, "tracks", len(tracks))
	return true
}

// restore replaces the manager state with a persisted session. The jitter
// filter restarts from the last point of each track; only the latest record
// per kind is rehydrated.
func (m *Manager) restore(sess *store.Session, tracks []*store.TrackRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sess = sess
	m.samples = make(map[store.TrackKind][]track.PointSample)
	m.lastFix = make(map[store.TrackKind]geo.Point)
	m.heading.Reset()

	for _, rec := range tracks {
		pts := make([]track.PointSample, len(rec.Points))
		copy(pts, rec.Points)
		m.samples[rec.Kind] = pts
		if len(pts) > 0 {
			last := pts[len(pts)-1]
			m.lastFix[rec.Kind] = geo.Point{Lat: last.Lat, Lon: last.Lon}
		}
	}
}
