// Package history records publish and extraction attempts in the SQLite history database.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julienpequegnot/seriesgen/internal/database"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type PublishAttempt struct {
	ID            int64
	RunID         string
	SeriesID      string
	ArticleNumber int
	Title         string
	Platform      string
	Status        string
	URL           string
	Error         string
	CreatedAt     time.Time
}

type Extraction struct {
	ID         int64
	RunID      string
	URL        string
	Strategy   string
	Status     string
	Title      string
	OutputPath string
	Error      string
	CreatedAt  time.Time
}

type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) RecordPublish(a PublishAttempt) (int64, error) {
	result, err := r.db.Exec(
		`INSERT INTO publish_attempts (run_id, series_id, article_number, title, platform, status, url, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.SeriesID, a.ArticleNumber, a.Title, a.Platform, a.Status, a.URL, a.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert publish attempt: %w", err)
	}
	return result.LastInsertId()
}

// ListPublish returns the newest attempts first. An empty seriesID lists all series.
func (r *Repository) ListPublish(seriesID string, limit int) ([]PublishAttempt, error) {
	query := `
		SELECT id, run_id, series_id, article_number, title, platform, status,
		       COALESCE(url, ''), COALESCE(error, ''), created_at
		FROM publish_attempts`
	args := []any{}
	if seriesID != "" {
		query += ` WHERE series_id = ?`
		args = append(args, seriesID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []PublishAttempt
	for rows.Next() {
		var a PublishAttempt
		if err := rows.Scan(&a.ID, &a.RunID, &a.SeriesID, &a.ArticleNumber, &a.Title, &a.Platform,
			&a.Status, &a.URL, &a.Error, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *Repository) RecordExtraction(e Extraction) (int64, error) {
	result, err := r.db.Exec(
		`INSERT INTO extractions (run_id, url, strategy, status, title, output_path, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.URL, nullIfEmpty(e.Strategy), e.Status, nullIfEmpty(e.Title), nullIfEmpty(e.OutputPath), nullIfEmpty(e.Error),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert extraction: %w", err)
	}
	return result.LastInsertId()
}

func (r *Repository) ListExtractions(limit int) ([]Extraction, error) {
	rows, err := r.db.Query(`
		SELECT id, run_id, url, COALESCE(strategy, ''), status, COALESCE(title, ''),
		       COALESCE(output_path, ''), COALESCE(error, ''), created_at
		FROM extractions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		var e Extraction
		if err := rows.Scan(&e.ID, &e.RunID, &e.URL, &e.Strategy, &e.Status, &e.Title,
			&e.OutputPath, &e.Error, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
