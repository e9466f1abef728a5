package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run records one extraction run, including the API quota snapshot at
// the time it finished.
type Run struct {
	ID             string
	AccountID      int64
	TermID         int64
	Status         string // running, completed, failed
	Error          string
	Courses        int64
	Students       int64
	Pages          int64
	APICost        float64
	QuotaRemaining float64
	APICalls       int64
	APIRetries     int64
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// CreateRun inserts a new running run row.
func (s *Store) CreateRun(r *Run) error {
	_, err := s.db.Exec(`
		INSERT INTO runs (id, account_id, term_id, status, started_at)
		VALUES (?, ?, ?, 'running', ?)`,
		r.ID, r.AccountID, r.TermID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("creating run %s: %w", r.ID, err)
	}
	return nil
}

// FinishRun closes out a run with final status and counters.
func (s *Store) FinishRun(r *Run) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE runs
		SET status = ?, error = ?, courses = ?, students = ?, pages = ?, api_cost = ?,
		    quota_remaining = ?, api_calls = ?, api_retries = ?, finished_at = ?
		WHERE id = ?`,
		r.Status, r.Error, r.Courses, r.Students, r.Pages, r.APICost,
		r.QuotaRemaining, r.APICalls, r.APIRetries, now, r.ID)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", r.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestRun returns the most recently started run.
func (s *Store) LatestRun() (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, account_id, term_id, status, error, courses, students, pages, api_cost,
		       quota_remaining, api_calls, api_retries, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT 1`)

	var r Run
	var finished sql.NullTime
	err := row.Scan(&r.ID, &r.AccountID, &r.TermID, &r.Status, &r.Error,
		&r.Courses, &r.Students, &r.Pages, &r.APICost,
		&r.QuotaRemaining, &r.APICalls, &r.APIRetries, &r.StartedAt, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading latest run: %w", err)
	}
	if finished.Valid {
		r.FinishedAt = &finished.Time
	}
	return &r, nil
}
