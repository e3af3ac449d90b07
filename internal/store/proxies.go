package store

import (
	"database/sql"
	"time"

	"github.com/browserfarm/browserfarm/pkg/models"
)

// CreateProxy inserts a proxy and returns it with its assigned id.
func (s *Store) CreateProxy(p models.Proxy) (*models.Proxy, error) {
	if p.Protocol == "" {
		p.Protocol = "http"
	}
	if p.Status == "" {
		p.Status = models.ProxyUntested
	}

	now := time.Now()
	res, err := s.db.Exec(`
		INSERT INTO proxies (host, port, username, password, protocol, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Host, p.Port, p.Username, p.Password, p.Protocol, p.Status, p.Notes, now, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return &p, nil
}

// GetProxy reads one proxy.
func (s *Store) GetProxy(id int64) (*models.Proxy, error) {
	row := s.db.QueryRow(`
		SELECT id, host, port, username, password, protocol, status, speed_ms, last_tested, is_assigned, assigned_to, notes, created_at, updated_at
		FROM proxies WHERE id = ?`, id)
	return scanProxy(row)
}

// ListProxies returns every proxy, newest first.
func (s *Store) ListProxies() ([]models.Proxy, error) {
	rows, err := s.db.Query(`
		SELECT id, host, port, username, password, protocol, status, speed_ms, last_tested, is_assigned, assigned_to, notes, created_at, updated_at
		FROM proxies ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proxies []models.Proxy
	for rows.Next() {
		p, err := scanProxy(rows)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, *p)
	}
	return proxies, rows.Err()
}

// RecordProxyTest persists a health-check outcome.
func (s *Store) RecordProxyTest(id int64, result models.ProxyTestResult) error {
	status := models.ProxyFailed
	var speed interface{}
	if result.Success {
		status = models.ProxyWorking
		speed = result.SpeedMs
	}

	res, err := s.db.Exec(`
		UPDATE proxies SET status = ?, speed_ms = ?, last_tested = ?, updated_at = ? WHERE id = ?`,
		status, speed, time.Now(), time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// AssignProxy binds or releases a proxy's assignment flags. A nil profileID
// releases it.
func (s *Store) AssignProxy(id int64, profileID *int64) error {
	res, err := s.db.Exec(`
		UPDATE proxies SET is_assigned = ?, assigned_to = ?, updated_at = ? WHERE id = ?`,
		profileID != nil, profileID, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// DeleteProxy removes a proxy row.
func (s *Store) DeleteProxy(id int64) error {
	res, err := s.db.Exec(`DELETE FROM proxies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func scanProxy(row rowScanner) (*models.Proxy, error) {
	var p models.Proxy
	var speed sql.NullInt64
	var lastTested sql.NullTime
	var assignedTo sql.NullInt64

	err := row.Scan(&p.ID, &p.Host, &p.Port, &p.Username, &p.Password, &p.Protocol, &p.Status,
		&speed, &lastTested, &p.IsAssigned, &assignedTo, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if speed.Valid {
		p.SpeedMs = &speed.Int64
	}
	if lastTested.Valid {
		p.LastTested = &lastTested.Time
	}
	if assignedTo.Valid {
		p.AssignedTo = &assignedTo.Int64
	}
	return &p, nil
}
