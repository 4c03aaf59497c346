package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session summarizes one run of the frame loop.
type Session struct {
	ID        string     `json:"id"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Frames    int64      `json:"frames"`
	Grabs     int64      `json:"grabs"`
	Scatters  int64      `json:"scatters"`
}

// SessionRepository records session history.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new open session.
func (r *SessionRepository) Create(s *Session) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at, frames, grabs, scatters) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.StartedAt, s.Frames, s.Grabs, s.Scatters,
	)
	return err
}

// Finish records the end time and final counters of a session.
func (r *SessionRepository) Finish(s *Session) error {
	if s.EndedAt == nil {
		now := time.Now()
		s.EndedAt = &now
	}
	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, grabs = ?, scatters = ? WHERE id = ?`,
		*s.EndedAt, s.Frames, s.Grabs, s.Scatters, s.ID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	s := &Session{}
	var ended sql.NullTime
	err := r.db.QueryRow(
		`SELECT id, started_at, ended_at, frames, grabs, scatters FROM sessions WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.StartedAt, &ended, &s.Frames, &s.Grabs, &s.Scatters)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if ended.Valid {
		s.EndedAt = &ended.Time
	}
	return s, nil
}

// Recent returns up to limit sessions, newest first.
func (r *SessionRepository) Recent(limit int) ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, ended_at, frames, grabs, scatters
		 FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s := &Session{}
		var ended sql.NullTime
		if err := rows.Scan(&s.ID, &s.StartedAt, &ended, &s.Frames, &s.Grabs, &s.Scatters); err != nil {
			return nil, err
		}
		if ended.Valid {
			s.EndedAt = &ended.Time
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
