// Package playback replays recorded operations for debriefing. A loaded
// session can be scrubbed by progress fraction, yielding the dog and laid
// track positions at that moment.
package playback

import (
	"context"
	"fmt"
	"sync"

	"scentline/pkg/store"
	"scentline/pkg/track"
)

// Position is a replay cursor on one track.
type Position struct {
	Index int                `json:"index"`
	Point *track.PointSample `json:"point,omitempty"`
}

// State describes the replay at a progress fraction.
type State struct {
	SessionID string   `json:"session_id"`
	Progress  float64  `json:"progress"`
	Dog       Position `json:"dog"`
	Laid      Position `json:"laid"`
}

// Manager holds the loaded replay.
type Manager struct {
	mu        sync.RWMutex
	sessionID string
	dog       []track.PointSample
	laid      []track.PointSample
	progress  float64
}

// NewManager creates an empty replay manager.
func NewManager() *Manager {
	return &Manager{}
}

// Load pulls a session's latest tracks from the store and resets the cursor.
func (m *Manager) Load(ctx context.Context, st store.Store, sessionID string) error {
	sess, err := st.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("session %s not found", sessionID)
	}

	dog, err := st.GetTrack(ctx, sessionID, store.TrackDog)
	if err != nil {
		return err
	}
	laid, err := st.GetTrack(ctx, sessionID, store.TrackLaid)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = sessionID
	m.dog = nil
	m.laid = nil
	if dog != nil {
		m.dog = dog.Points
	}
	if laid != nil {
		m.laid = laid.Points
	}
	m.progress = 0
	return nil
}

// Loaded reports whether a replay is loaded.
func (m *Manager) Loaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID != ""
}

// Seek moves the cursor to a progress fraction in [0, 1] and returns the
// replay state there.
func (m *Manager) Seek(progress float64) (*State, error) {
	if progress < 0 || progress > 1 {
		return nil, fmt.Errorf("progress %v out of range [0, 1]", progress)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessionID == "" {
		return nil, fmt.Errorf("no replay loaded")
	}
	m.progress = progress
	return m.stateLocked(), nil
}

// State returns the replay state at the current cursor.
func (m *Manager) State() (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sessionID == "" {
		return nil, fmt.Errorf("no replay loaded")
	}
	return m.stateLocked(), nil
}

func (m *Manager) stateLocked() *State {
	return &State{
		SessionID: m.sessionID,
		Progress:  m.progress,
		Dog:       positionAt(m.dog, m.progress),
		Laid:      positionAt(m.laid, m.progress),
	}
}

// Clear unloads the replay.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = ""
	m.dog = nil
	m.laid = nil
	m.progress = 0
}

func positionAt(points []track.PointSample, progress float64) Position {
	idx := track.AtProgress(points, progress)
	pos := Position{Index: idx}
	if idx >= 0 {
		p := points[idx]
		pos.Point = &p
	}
	return pos
}
