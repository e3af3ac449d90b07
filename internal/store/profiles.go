package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/browserfarm/browserfarm/pkg/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// CreateProfile inserts a profile and returns it with its assigned id.
func (s *Store) CreateProfile(p models.Profile) (*models.Profile, error) {
	fp, err := json.Marshal(p.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fingerprint: %w", err)
	}

	now := time.Now()
	res, err := s.db.Exec(`
		INSERT INTO profiles (name, fingerprint, proxy_id, user_data_dir, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, string(fp), p.ProxyID, p.UserDataDir, models.ProfileInactive, p.Notes, now, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	p.ID = id
	p.Status = models.ProfileInactive
	p.CreatedAt = now
	p.UpdatedAt = now
	return &p, nil
}

// GetProfile reads a profile with its assigned proxy, if any.
func (s *Store) GetProfile(id int64) (*models.Profile, error) {
	row := s.db.QueryRow(`
		SELECT id, name, fingerprint, proxy_id, user_data_dir, status, last_used, notes, created_at, updated_at
		FROM profiles WHERE id = ?`, id)

	p, err := scanProfile(row)
	if err != nil {
		return nil, err
	}

	if p.ProxyID != nil {
		proxy, err := s.GetProxy(*p.ProxyID)
		if err == nil {
			p.Proxy = proxy
		} else if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	return p, nil
}

// ListProfiles returns every profile, newest first.
func (s *Store) ListProfiles() ([]models.Profile, error) {
	rows, err := s.db.Query(`
		SELECT id, name, fingerprint, proxy_id, user_data_dir, status, last_used, notes, created_at, updated_at
		FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// UpdateProfile replaces the mutable fields of a profile.
func (s *Store) UpdateProfile(p models.Profile) error {
	fp, err := json.Marshal(p.Fingerprint)
	if err != nil {
		return fmt.Errorf("failed to encode fingerprint: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE profiles SET name = ?, fingerprint = ?, proxy_id = ?, user_data_dir = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, string(fp), p.ProxyID, p.UserDataDir, p.Notes, time.Now(), p.ID,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// SetProfileStatus transitions a profile's active flag, stamping last_used
// on activation.
func (s *Store) SetProfileStatus(id int64, status models.ProfileStatus) error {
	var err error
	if status == models.ProfileActive {
		_, err = s.db.Exec(`UPDATE profiles SET status = ?, last_used = ?, updated_at = ? WHERE id = ?`,
			status, time.Now(), time.Now(), id)
	} else {
		_, err = s.db.Exec(`UPDATE profiles SET status = ?, updated_at = ? WHERE id = ?`,
			status, time.Now(), id)
	}
	return err
}

// DeactivateAllProfiles marks every active profile inactive (cleanup path).
func (s *Store) DeactivateAllProfiles() error {
	_, err := s.db.Exec(`UPDATE profiles SET status = ?, updated_at = ? WHERE status = ?`,
		models.ProfileInactive, time.Now(), models.ProfileActive)
	return err
}

// DeleteProfile removes a profile row.
func (s *Store) DeleteProfile(id int64) error {
	res, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var fp string
	var proxyID sql.NullInt64
	var lastUsed sql.NullTime

	err := row.Scan(&p.ID, &p.Name, &fp, &proxyID, &p.UserDataDir, &p.Status, &lastUsed, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(fp), &p.Fingerprint); err != nil {
		return nil, fmt.Errorf("failed to decode fingerprint: %w", err)
	}
	if proxyID.Valid {
		p.ProxyID = &proxyID.Int64
	}
	if lastUsed.Valid {
		p.LastUsed = &lastUsed.Time
	}
	return &p, nil
}

func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
