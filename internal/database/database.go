package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	conn *sql.DB
	path string
}

func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Path() string {
	return db.path
}

func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS publish_attempts (
		id INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		series_id TEXT NOT NULL,
		article_number INTEGER NOT NULL,
		title TEXT NOT NULL,
		platform TEXT NOT NULL,
		status TEXT NOT NULL,
		url TEXT,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS extractions (
		id INTEGER PRIMARY KEY,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		strategy TEXT,
		status TEXT NOT NULL,
		title TEXT,
		output_path TEXT,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_publish_series ON publish_attempts(series_id);
	CREATE INDEX IF NOT EXISTS idx_publish_created ON publish_attempts(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_extractions_created ON extractions(created_at DESC);
	`

	_, err := db.conn.Exec(schema)
	return err
}
