package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/browserfarm/browserfarm/pkg/models"
)

// CreateScript inserts a script and returns it with its assigned id.
func (s *Store) CreateScript(sc models.Script) (*models.Script, error) {
	actions, err := json.Marshal(sc.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode actions: %w", err)
	}

	now := time.Now()
	res, err := s.db.Exec(`
		INSERT INTO scripts (name, description, actions, schedule, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sc.Name, sc.Description, string(actions), sc.Schedule, sc.IsActive, now, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	sc.ID = id
	sc.CreatedAt = now
	sc.UpdatedAt = now
	return &sc, nil
}

// GetScript reads one script.
func (s *Store) GetScript(id int64) (*models.Script, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, actions, schedule, is_active, last_run, run_count, success_count, failure_count, created_at, updated_at
		FROM scripts WHERE id = ?`, id)
	return scanScript(row)
}

// ListScripts returns every script, newest first.
func (s *Store) ListScripts() ([]models.Script, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, actions, schedule, is_active, last_run, run_count, success_count, failure_count, created_at, updated_at
		FROM scripts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []models.Script
	for rows.Next() {
		sc, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *sc)
	}
	return scripts, rows.Err()
}

// UpdateScript replaces a script's mutable fields.
func (s *Store) UpdateScript(sc models.Script) error {
	actions, err := json.Marshal(sc.Actions)
	if err != nil {
		return fmt.Errorf("failed to encode actions: %w", err)
	}

	res, err := s.db.Exec(`
		UPDATE scripts SET name = ?, description = ?, actions = ?, schedule = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		sc.Name, sc.Description, string(actions), sc.Schedule, sc.IsActive, time.Now(), sc.ID,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// MarkScriptRun bumps the run counter and stamps last_run at invocation start.
func (s *Store) MarkScriptRun(id int64, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE scripts SET run_count = run_count + 1, last_run = ?, updated_at = ? WHERE id = ?`,
		at, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// RecordScriptOutcome adds one invocation's per-profile success/failure
// tallies to the aggregate counters.
func (s *Store) RecordScriptOutcome(id int64, successes, failures int64) error {
	res, err := s.db.Exec(`
		UPDATE scripts SET success_count = success_count + ?, failure_count = failure_count + ?, updated_at = ?
		WHERE id = ?`,
		successes, failures, time.Now(), id,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

// DeleteScript removes a script row.
func (s *Store) DeleteScript(id int64) error {
	res, err := s.db.Exec(`DELETE FROM scripts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func scanScript(row rowScanner) (*models.Script, error) {
	var sc models.Script
	var actions string
	var lastRun sql.NullTime

	err := row.Scan(&sc.ID, &sc.Name, &sc.Description, &actions, &sc.Schedule, &sc.IsActive,
		&lastRun, &sc.RunCount, &sc.SuccessCount, &sc.FailureCount, &sc.CreatedAt, &sc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(actions), &sc.Actions); err != nil {
		return nil, fmt.Errorf("failed to decode actions: %w", err)
	}
	if lastRun.Valid {
		sc.LastRun = &lastRun.Time
	}
	return &sc, nil
}
