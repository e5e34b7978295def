// Package session holds the live operation: the LKP, the wind reading, and
// the tracks being recorded against it.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"scentline/pkg/geo"
	"scentline/pkg/store"
	"scentline/pkg/track"
)

// Manager handles the in-memory state of the current operation.
type Manager struct {
	mu sync.RWMutex

	sess    *store.Session
	samples map[store.TrackKind][]track.PointSample

	heading    *geo.TrackBuffer
	lastFix    map[store.TrackKind]geo.Point
	minMoveM   float64
	lastDegSet float64
}

// NewManager creates a session manager. minMoveM filters GPS jitter: fixes
// closer than this to the previous accepted fix of the same track are
// dropped. headingWindow is the smoothing window for the live ground track.
func NewManager(minMoveM float64, headingWindow int) *Manager {
	return &Manager{
		samples:  make(map[store.TrackKind][]track.PointSample),
		lastFix:  make(map[store.TrackKind]geo.Point),
		heading:  geo.NewTrackBuffer(headingWindow),
		minMoveM: minMoveM,
	}
}

// Start begins a new operation, replacing any current one.
func (m *Manager) Start(name string, lkp geo.Point, lkpTime time.Time, windFromDeg, windSpeedMph float64) *store.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sess = &store.Session{
		ID:           uuid.NewString(),
		Name:         name,
		LKPLat:       lkp.Lat,
		LKPLon:       lkp.Lon,
		LKPTime:      lkpTime,
		WindFromDeg:  windFromDeg,
		WindSpeedMph: windSpeedMph,
		CreatedAt:    time.Now().UTC(),
	}
	m.samples = make(map[store.TrackKind][]track.PointSample)
	m.lastFix = make(map[store.TrackKind]geo.Point)
	m.heading.Reset()
	return m.cloneSession()
}

// Current returns a copy of the active session, or nil if none is active.
func (m *Manager) Current() *store.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cloneSession()
}

func (m *Manager) cloneSession() *store.Session {
	if m.sess == nil {
		return nil
	}
	s := *m.sess
	return &s
}

// SetWind updates the wind reading for the active session.
func (m *Manager) SetWind(fromDeg, speedMph float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return fmt.Errorf("no active session")
	}
	m.sess.WindFromDeg = fromDeg
	m.sess.WindSpeedMph = speedMph
	return nil
}

// AddFix records a GPS fix on a track. It returns false when the fix was
// dropped by the jitter filter, together with the smoothed heading after the
// update.
func (m *Manager) AddFix(kind store.TrackKind, sample track.PointSample) (accepted bool, headingDeg float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess == nil {
		return false, 0, fmt.Errorf("no active session")
	}

	p := geo.Point{Lat: sample.Lat, Lon: sample.Lon}
	if prev, ok := m.lastFix[kind]; ok {
		if geo.Distance(prev, p) < m.minMoveM {
			return false, m.lastDegSet, nil
		}
	}

	m.samples[kind] = append(m.samples[kind], sample)
	m.lastFix[kind] = p

	// Heading follows the dog track only
	if kind == store.TrackDog {
		m.lastDegSet = m.heading.Push(p, m.lastDegSet)
	}
	return true, m.lastDegSet, nil
}

// Samples returns a copy of the recorded samples for a track.
func (m *Manager) Samples(kind store.TrackKind) []track.PointSample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src := m.samples[kind]
	out := make([]track.PointSample, len(src))
	copy(out, src)
	return out
}

// Heading returns the current smoothed ground-track heading of the dog.
func (m *Manager) Heading() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastDegSet
}

// Save persists the active session and its recorded tracks.
func (m *Manager) Save(ctx context.Context, st store.Store) error {
	m.mu.RLock()
	sess := m.cloneSession()
	snapshots := make(map[store.TrackKind][]track.PointSample, len(m.samples))
	for kind, pts := range m.samples {
		cp := make([]track.PointSample, len(pts))
		copy(cp, pts)
		snapshots[kind] = cp
	}
	m.mu.RUnlock()

	if sess == nil {
		return fmt.Errorf("no active session")
	}

	if err := st.SaveSession(ctx, sess); err != nil {
		return err
	}
	for kind, pts := range snapshots {
		if len(pts) == 0 {
			continue
		}
		if _, err := st.SaveTrack(ctx, sess.ID, kind, pts); err != nil {
			return err
		}
	}
	return st.SetState(ctx, stateKeyCurrentSession, sess.ID)
}

// End persists and then clears the active session.
func (m *Manager) End(ctx context.Context, st store.Store) error {
	if err := m.Save(ctx, st); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	m.samples = make(map[store.TrackKind][]track.PointSample)
	m.lastFix = make(map[store.TrackKind]geo.Point)
	m.heading.Reset()
	return st.SetState(ctx, stateKeyCurrentSession, "")
}
