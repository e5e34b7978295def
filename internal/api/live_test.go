package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentline/pkg/cone"
	"scentline/pkg/session"
	"scentline/pkg/store"
)

func dialLive(t *testing.T, mgr *session.Manager) *websocket.Conn {
	t.Helper()
	h := NewLiveHandler(mgr, cone.Settings{TimeHorizonHours: 2, SpreadDeg: 40, Stability: cone.StabilityMedium})
	svr := httptest.NewServer(http.HandlerFunc(h.Handle))
	t.Cleanup(svr.Close)

	url := "ws" + strings.TrimPrefix(svr.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLiveRecorder(t *testing.T) {
	mgr := session.NewManager(1, 3)
	mgr.Start("live op", geoPoint(47.6, -122.3), time.Now(), 270, 8)
	conn := dialLive(t, mgr)

	require.NoError(t, conn.WriteJSON(LiveFix{Kind: store.TrackDog, Lat: 47.6, Lon: -122.3}))

	var state LiveState
	require.NoError(t, conn.ReadJSON(&state))
	assert.True(t, state.Accepted)
	assert.Empty(t, state.Error)
	assert.Len(t, state.Cone, 25)

	// A jitter fix under 1 m is rejected but still answered
	require.NoError(t, conn.WriteJSON(LiveFix{Kind: store.TrackDog, Lat: 47.6, Lon: -122.3}))
	state = LiveState{}
	require.NoError(t, conn.ReadJSON(&state))
	assert.False(t, state.Accepted)
	assert.Empty(t, state.Cone)
}

func TestLiveRecorderBadKind(t *testing.T) {
	mgr := session.NewManager(1, 3)
	mgr.Start("live op", geoPoint(47.6, -122.3), time.Now(), 270, 8)
	conn := dialLive(t, mgr)

	require.NoError(t, conn.WriteJSON(LiveFix{Kind: "cat", Lat: 1, Lon: 2}))

	var state LiveState
	require.NoError(t, conn.ReadJSON(&state))
	assert.False(t, state.Accepted)
	assert.NotEmpty(t, state.Error)
}

func TestLiveRecorderNoSession(t *testing.T) {
	mgr := session.NewManager(1, 3)
	conn := dialLive(t, mgr)

	require.NoError(t, conn.WriteJSON(LiveFix{Kind: store.TrackDog, Lat: 1, Lon: 2}))

	var state LiveState
	require.NoError(t, conn.ReadJSON(&state))
	assert.False(t, state.Accepted)
	assert.Contains(t, state.Error, "no active session")
}
