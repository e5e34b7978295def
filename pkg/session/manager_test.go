package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scentline/pkg/db"
	"scentline/pkg/geo"
	"scentline/pkg/store"
	"scentline/pkg/track"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "session_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return store.NewSQLiteStore(d)
}

func TestStartReplacesSession(t *testing.T) {
	m := NewManager(3, 5)

	assert.Nil(t, m.Current())

	first := m.Start("op one", geo.Point{Lat: 47.6, Lon: -122.3}, time.Now(), 270, 8)
	require.NotNil(t, first)
	require.NotEmpty(t, first.ID)

	_, _, err := m.AddFix(store.TrackDog, track.PointSample{Lat: 47.6, Lon: -122.3})
	require.NoError(t, err)

	second := m.Start("op two", geo.Point{Lat: 48.0, Lon: -121.0}, time.Now(), 180, 5)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Empty(t, m.Samples(store.TrackDog), "samples cleared on restart")
}

func TestAddFixJitterFilter(t *testing.T) {
	m := NewManager(3, 5)
	m.Start("op", geo.Point{Lat: 47.6, Lon: -122.3}, time.Now(), 270, 8)

	ok, _, err := m.AddFix(store.TrackDog, track.PointSample{Lat: 47.6, Lon: -122.3})
	require.NoError(t, err)
	assert.True(t, ok, "first fix always accepted")

	// ~1m east of the first fix, under the 3m threshold
	ok, _, err = m.AddFix(store.TrackDog, track.PointSample{Lat: 47.6, Lon: -122.299987})
	require.NoError(t, err)
	assert.False(t, ok, "jitter fix dropped")

	// ~75m east
	ok, _, err = m.AddFix(store.TrackDog, track.PointSample{Lat: 47.6, Lon: -122.299})
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Len(t, m.Samples(store.TrackDog), 2)
}

func TestAddFixHeadingFollowsDogOnly(t *testing.T) {
	m := NewManager(1, 3)
	m.Start("op", geo.Point{Lat: 0, Lon: 0}, time.Now(), 0, 0)

	// Dog moving due east
	for i := 0; i < 4; i++ {
		_, _, err := m.AddFix(store.TrackDog, track.PointSample{Lat: 0, Lon: float64(i) * 0.001})
		require.NoError(t, err)
	}
	heading := m.Heading()
	assert.InDelta(t, 90, heading, 1.0)

	// A laid-track fix moving north must not disturb the dog heading
	_, _, err := m.AddFix(store.TrackLaid, track.PointSample{Lat: 0.01, Lon: 0})
	require.NoError(t, err)
	assert.InDelta(t, heading, m.Heading(), 1e-9)
}

func TestAddFixWithoutSession(t *testing.T) {
	m := NewManager(3, 5)
	_, _, err := m.AddFix(store.TrackDog, track.PointSample{})
	assert.Error(t, err)

	assert.Error(t, m.SetWind(90, 5))
}

func TestSetWind(t *testing.T) {
	m := NewManager(3, 5)
	m.Start("op", geo.Point{Lat: 47.6, Lon: -122.3}, time.Now(), 270, 8)

	require.NoError(t, m.SetWind(90, 12))
	cur := m.Current()
	require.NotNil(t, cur)
	assert.Equal(t, 90.0, cur.WindFromDeg)
	assert.Equal(t, 12.0, cur.WindSpeedMph)
}

func TestSaveAndRestore(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	m := NewManager(1, 5)
	sess := m.Start("restore me", geo.Point{Lat: 47.6, Lon: -122.3}, time.Now().UTC(), 270, 8)
	for i := 0; i < 3; i++ {
		_, _, err := m.AddFix(store.TrackDog, track.PointSample{Lat: 47.6, Lon: -122.3 + float64(i)*0.001})
		require.NoError(t, err)
	}
	require.NoError(t, m.Save(ctx, st))

	fresh := NewManager(1, 5)
	require.True(t, TryRestore(ctx, st, fresh))

	cur := fresh.Current()
	require.NotNil(t, cur)
	assert.Equal(t, sess.ID, cur.ID)
	assert.Equal(t, "restore me", cur.Name)
	assert.Len(t, fresh.Samples(store.TrackDog), 3)
}

func TestRestoreNothingPersisted(t *testing.T) {
	st := newTestStore(t)
	m := NewManager(3, 5)
	assert.False(t, TryRestore(context.Background(), st, m))
	assert.Nil(t, m.Current())
}

func TestEndClearsState(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	m := NewManager(1, 5)
	m.Start("done", geo.Point{Lat: 47.6, Lon: -122.3}, time.Now().UTC(), 270, 8)
	require.NoError(t, m.End(ctx, st))
	assert.Nil(t, m.Current())

	// Ended sessions are persisted but not restored
	fresh := NewManager(1, 5)
	assert.False(t, TryRestore(ctx, st, fresh))

	sessions, err := st.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestRestoreDanglingID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetState(ctx, "current_session", "gone"))

	m := NewManager(3, 5)
	assert.False(t, TryRestore(ctx, st, m))
	assert.Nil(t, m.Current())
}
