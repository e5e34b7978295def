package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"scentline/pkg/envelope"
	"scentline/pkg/geo"
	"scentline/pkg/store"
	"scentline/pkg/track"
	"scentline/pkg/units"
)

// ExportHandler turns a persisted operation into shareable formats.
type ExportHandler struct {
	store store.Store
	now   func() time.Time
}

// NewExportHandler creates an export handler.
func NewExportHandler(st store.Store) *ExportHandler {
	return &ExportHandler{store: st, now: time.Now}
}

// HandleGeoJSON handles GET /api/export/geojson. The response is a
// FeatureCollection with the LKP, all recorded tracks, the envelope zones as
// they stand now, and the recommended start points.
func (h *ExportHandler) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		http.Error(w, "session query parameter required", http.StatusBadRequest)
		return
	}

	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	tracks, err := h.store.GetTracks(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load tracks", http.StatusInternalServerError)
		return
	}

	fc := geojson.NewFeatureCollection()

	lkp := geojson.NewFeature(orb.Point{sess.LKPLon, sess.LKPLat})
	lkp.Properties["kind"] = "lkp"
	lkp.Properties["name"] = sess.Name
	lkp.Properties["lkp_time"] = sess.LKPTime.UTC().Format(time.RFC3339)
	fc.Append(lkp)

	for _, rec := range tracks {
		line := make(orb.LineString, len(rec.Points))
		for i, p := range rec.Points {
			line[i] = orb.Point{p.Lon, p.Lat}
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "track"
		f.Properties["track_kind"] = string(rec.Kind)
		f.Properties["points"] = len(rec.Points)
		fc.Append(f)
	}

	// Envelope as it stands at export time, with default conditions. Field
	// teams export after the fact; live condition entry happens elsewhere.
	out := envelope.Compute(envelope.Inputs{
		Source:       geo.Point{Lat: sess.LKPLat, Lon: sess.LKPLon},
		LKPTime:      sess.LKPTime,
		Now:          h.now(),
		WindFromDeg:  sess.WindFromDeg,
		WindSpeedMph: units.Mph(sess.WindSpeedMph),
		Conditions:   envelope.DefaultConditions(),
	})
	for _, zone := range []envelope.Zone{out.Core, out.Fringe, out.Residual} {
		ring := make(orb.Ring, len(zone.Ring))
		for i, p := range zone.Ring {
			ring[i] = orb.Point{p.Lon, p.Lat}
		}
		f := geojson.NewFeature(orb.Polygon{ring})
		f.Properties["kind"] = "envelope"
		f.Properties["zone"] = zone.Name
		f.Properties["radius_m"] = float64(zone.RadiusM)
		f.Properties["confidence"] = out.Confidence
		f.Properties["band"] = out.Band
		fc.Append(f)
	}
	for _, sp := range out.StartPoints {
		f := geojson.NewFeature(orb.Point{sp.Point.Lon, sp.Point.Lat})
		f.Properties["kind"] = "start_point"
		f.Properties["label"] = sp.Label
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		http.Error(w, "failed to encode feature collection", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "scentline-"+id+".geojson"))
	_, _ = w.Write(data)
}

// HandleGPXImport handles POST /api/sessions/{id}/import/gpx. The body is a
// raw GPX document; parsed points are stored as a track of the given kind.
func (h *ExportHandler) HandleGPXImport(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	kind := store.TrackKind(r.URL.Query().Get("kind"))
	if kind == "" {
		kind = store.TrackDog
	}
	if kind != store.TrackLaid && kind != store.TrackDog {
		http.Error(w, fmt.Sprintf("unknown track kind %q", kind), http.StatusBadRequest)
		return
	}

	sess, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	points, err := track.ParseGPX(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid gpx: %v", err), http.StatusBadRequest)
		return
	}
	if len(points) == 0 {
		http.Error(w, "gpx contains no track points", http.StatusBadRequest)
		return
	}

	trackID, err := h.store.SaveTrack(r.Context(), id, kind, points)
	if err != nil {
		http.Error(w, "failed to save track", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": trackID, "points": len(points), "kind": kind})
}
