package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"scentline/pkg/db"
	"scentline/pkg/track"
)

// SQLiteStore implements Store on the application database.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a store backed by the given database.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

// SaveSession inserts or replaces a session.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess *Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, name, lkp_lat, lkp_lon, lkp_time, wind_from_deg, wind_speed_mph)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Name, sess.LKPLat, sess.LKPLon, sess.LKPTime.UTC(), sess.WindFromDeg, sess.WindSpeedMph)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetSession returns the session with the given id, or nil if absent.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, lkp_lat, lkp_lon, lkp_time, wind_from_deg, wind_speed_mph, created_at
		 FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sess, err
}

// ListSessions returns all sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, lkp_lat, lkp_lon, lkp_time, wind_from_deg, wind_speed_mph, created_at
		 FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session and its tracks.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tracks WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session tracks: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (*Session, error) {
	var sess Session
	if err := r.Scan(&sess.ID, &sess.Name, &sess.LKPLat, &sess.LKPLon, &sess.LKPTime,
		&sess.WindFromDeg, &sess.WindSpeedMph, &sess.CreatedAt); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SaveTrack stores a point sequence for a session. Points are stored as a
// JSON payload; track sizes are bounded by manual recording duration.
func (s *SQLiteStore) SaveTrack(ctx context.Context, sessionID string, kind TrackKind, points []track.PointSample) (int64, error) {
	payload, err := json.Marshal(points)
	if err != nil {
		return 0, fmt.Errorf("failed to encode track points: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tracks (session_id, kind, points) VALUES (?, ?, ?)`,
		sessionID, string(kind), string(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to save track: %w", err)
	}
	return res.LastInsertId()
}

// GetTracks returns all tracks recorded for a session, oldest first.
func (s *SQLiteStore) GetTracks(ctx context.Context, sessionID string) ([]*TrackRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, points, created_at FROM tracks
		 WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracks: %w", err)
	}
	defer rows.Close()

	var records []*TrackRecord
	for rows.Next() {
		rec, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetTrack returns the most recent track of the given kind, or nil if none
// was recorded.
func (s *SQLiteStore) GetTrack(ctx context.Context, sessionID string, kind TrackKind) (*TrackRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, kind, points, created_at FROM tracks
		 WHERE session_id = ? AND kind = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		sessionID, string(kind))
	rec, err := scanTrack(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

func scanTrack(r rowScanner) (*TrackRecord, error) {
	var rec TrackRecord
	var kind, payload string
	if err := r.Scan(&rec.ID, &rec.SessionID, &kind, &payload, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Kind = TrackKind(kind)
	if err := json.Unmarshal([]byte(payload), &rec.Points); err != nil {
		return nil, fmt.Errorf("failed to decode track points: %w", err)
	}
	return &rec, nil
}

// SaveProfile inserts or replaces a dog profile.
func (s *SQLiteStore) SaveProfile(ctx context.Context, p *Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO profiles (id, name, handler, notes) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Handler, p.Notes)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// ListProfiles returns all dog profiles ordered by name.
func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, handler, notes, created_at FROM profiles ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Name, &p.Handler, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

// GetCache returns a cached value if present.
func (s *SQLiteStore) GetCache(ctx context.Context, key string) ([]byte, bool) {
	var val []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, key).Scan(&val)
	if err != nil {
		return nil, false
	}
	return val, true
}

// SetCache stores a cached value.
func (s *SQLiteStore) SetCache(ctx context.Context, key string, val []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache (key, value, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, val)
	return err
}

// GetState returns a state value, or empty string if absent.
func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

// SetState stores a state value.
func (s *SQLiteStore) SetState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO state (key, value) VALUES (?, ?)`, key, value)
	return err
}
