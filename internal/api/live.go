package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"scentline/pkg/cone"
	"scentline/pkg/geo"
	"scentline/pkg/session"
	"scentline/pkg/store"
	"scentline/pkg/track"
	"scentline/pkg/units"
)

// LiveHandler is the field recorder socket. Clients stream GPS fixes up;
// every accepted fix comes back with the smoothed heading and the
// recomputed operational cone from the LKP.
type LiveHandler struct {
	mgr      *session.Manager
	settings cone.Settings
	upgrader websocket.Upgrader
}

// NewLiveHandler creates the live recorder handler.
func NewLiveHandler(mgr *session.Manager, settings cone.Settings) *LiveHandler {
	return &LiveHandler{
		mgr:      mgr,
		settings: settings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Served on localhost for the field tablet's own browser
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// LiveFix is one uplinked GPS fix.
type LiveFix struct {
	Kind     store.TrackKind `json:"kind"`
	Lat      float64         `json:"lat"`
	Lon      float64         `json:"lon"`
	Time     *time.Time      `json:"time,omitempty"`
	SpeedKmh *float64        `json:"speed_kmh,omitempty"`
}

// LiveState is the downlinked state after a fix.
type LiveState struct {
	Accepted   bool        `json:"accepted"`
	HeadingDeg float64     `json:"heading_deg"`
	Cone       []geo.Point `json:"cone,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Handle handles GET /api/live.
func (h *LiveHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Live: upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	slog.Info("Live: recorder connected", "remote", conn.RemoteAddr())

	for {
		var fix LiveFix
		if err := conn.ReadJSON(&fix); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Live: recorder dropped", "error", err)
			}
			return
		}

		state := h.apply(fix)
		if err := conn.WriteJSON(state); err != nil {
			slog.Warn("Live: write failed", "error", err)
			return
		}
	}
}

func (h *LiveHandler) apply(fix LiveFix) LiveState {
	if fix.Kind != store.TrackLaid && fix.Kind != store.TrackDog {
		return LiveState{Error: "unknown track kind"}
	}

	accepted, heading, err := h.mgr.AddFix(fix.Kind, track.PointSample{
		Lat: fix.Lat, Lon: fix.Lon, Time: fix.Time, SpeedKmh: fix.SpeedKmh,
	})
	if err != nil {
		return LiveState{Error: err.Error()}
	}

	state := LiveState{Accepted: accepted, HeadingDeg: heading}
	if accepted {
		if sess := h.mgr.Current(); sess != nil {
			state.Cone = cone.BuildPolygon(
				geo.Point{Lat: sess.LKPLat, Lon: sess.LKPLon},
				sess.WindFromDeg,
				units.Mph(sess.WindSpeedMph).Kmh(),
				h.settings,
			)
		}
	}
	return state
}
