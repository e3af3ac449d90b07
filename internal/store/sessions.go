package store

import (
	"database/sql"
	"time"

	"github.com/browserfarm/browserfarm/pkg/models"
)

// CreateSession inserts a running session row for a profile.
func (s *Store) CreateSession(profileID int64, startedAt time.Time) (*models.Session, error) {
	now := time.Now()
	res, err := s.db.Exec(`
		INSERT INTO browser_sessions (profile_id, status, started_at, last_activity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		profileID, models.StateRunning, startedAt, startedAt, now, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Session{
		ID:           id,
		ProfileID:    profileID,
		Status:       models.StateRunning,
		StartedAt:    startedAt,
		LastActivity: &startedAt,
	}, nil
}

// MarkSessionStopped transitions a profile's running session rows to the
// given terminal state.
func (s *Store) MarkSessionStopped(profileID int64, status models.SessionState, stoppedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE browser_sessions SET status = ?, stopped_at = ?, updated_at = ?
		WHERE profile_id = ? AND status = ?`,
		status, stoppedAt, time.Now(), profileID, models.StateRunning,
	)
	return err
}

// StopAllRunningSessions bulk-transitions every running session to stopped
// (cleanup path).
func (s *Store) StopAllRunningSessions(stoppedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE browser_sessions SET status = ?, stopped_at = ?, updated_at = ?
		WHERE status = ?`,
		models.StateStopped, stoppedAt, time.Now(), models.StateRunning,
	)
	return err
}

// SetMasterSession flags one profile's session rows as master and clears
// the flag everywhere else, in a single transaction.
func (s *Store) SetMasterSession(profileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE browser_sessions SET is_master = 0, updated_at = ? WHERE profile_id != ?`,
		time.Now(), profileID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE browser_sessions SET is_master = 1, updated_at = ? WHERE profile_id = ?`,
		time.Now(), profileID); err != nil {
		return err
	}

	return tx.Commit()
}

// ClearMasterSessions clears the master flag on every session row.
func (s *Store) ClearMasterSessions() error {
	_, err := s.db.Exec(`UPDATE browser_sessions SET is_master = 0, updated_at = ? WHERE is_master = 1`, time.Now())
	return err
}

// UpdateSessionActivity records the debounced telemetry write: the last
// observed URL and activity time for a profile's running session.
func (s *Store) UpdateSessionActivity(profileID int64, currentURL string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE browser_sessions SET current_url = ?, last_activity = ?, updated_at = ?
		WHERE profile_id = ? AND status = ?`,
		currentURL, at, time.Now(), profileID, models.StateRunning,
	)
	return err
}

// ListSessions returns session history, newest first.
func (s *Store) ListSessions() ([]models.Session, error) {
	rows, err := s.db.Query(`
		SELECT id, profile_id, status, started_at, stopped_at, is_master, current_url, last_activity
		FROM browser_sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var sess models.Session
		var startedAt sql.NullTime
		var stoppedAt sql.NullTime
		var lastActivity sql.NullTime

		if err := rows.Scan(&sess.ID, &sess.ProfileID, &sess.Status, &startedAt, &stoppedAt,
			&sess.IsMaster, &sess.CurrentURL, &lastActivity); err != nil {
			return nil, err
		}
		if startedAt.Valid {
			sess.StartedAt = startedAt.Time
		}
		if stoppedAt.Valid {
			sess.StoppedAt = &stoppedAt.Time
		}
		if lastActivity.Valid {
			sess.LastActivity = &lastActivity.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}
