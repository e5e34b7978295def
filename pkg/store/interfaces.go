package store

import (
	"context"
	"time"

	"scentline/pkg/track"
)

// Session is a persisted operation: an LKP, its wind reading, and the tracks
// recorded against it.
type Session struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LKPLat       float64   `json:"lkp_lat"`
	LKPLon       float64   `json:"lkp_lon"`
	LKPTime      time.Time `json:"lkp_time"`
	WindFromDeg  float64   `json:"wind_from_deg"`
	WindSpeedMph float64   `json:"wind_speed_mph"`
	CreatedAt    time.Time `json:"created_at"`
}

// TrackKind distinguishes the laid scent trail from the dog's traveled path.
type TrackKind string

const (
	TrackLaid TrackKind = "laid"
	TrackDog  TrackKind = "dog"
)

// TrackRecord is a persisted point sequence.
type TrackRecord struct {
	ID        int64               `json:"id"`
	SessionID string              `json:"session_id"`
	Kind      TrackKind           `json:"kind"`
	Points    []track.PointSample `json:"points"`
	CreatedAt time.Time           `json:"created_at"`
}

// Profile is a dog profile for report headers.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Handler   string    `json:"handler"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionStore handles operation session persistence.
type SessionStore interface {
	SaveSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]*Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// TrackStore handles recorded track persistence.
type TrackStore interface {
	SaveTrack(ctx context.Context, sessionID string, kind TrackKind, points []track.PointSample) (int64, error)
	GetTracks(ctx context.Context, sessionID string) ([]*TrackRecord, error)
	GetTrack(ctx context.Context, sessionID string, kind TrackKind) (*TrackRecord, error)
}

// ProfileStore handles dog profile persistence.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p *Profile) error
	ListProfiles(ctx context.Context) ([]*Profile, error)
}

// CacheStore handles generic key-value caching.
type CacheStore interface {
	GetCache(ctx context.Context, key string) ([]byte, bool)
	SetCache(ctx context.Context, key string, val []byte) error
}

// StateStore handles small key-value application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, error)
	SetState(ctx context.Context, key, value string) error
}

// Store is the full persistence surface.
type Store interface {
	SessionStore
	TrackStore
	ProfileStore
	CacheStore
	StateStore
}
