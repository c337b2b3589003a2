package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// History persists REPL input to a SQLite database so that sessions can
// be replayed and inspected.
type History struct {
	db *sql.DB
}

// OpenHistory opens (or creates) the history database at path. An empty
// path resolves to ~/.pscheme/history.db.
func OpenHistory(path string) (*History, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home dir: %w", err)
		}
		path = filepath.Join(home, ".pscheme", "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		expr TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history table: %w", err)
	}
	return &History{db: db}, nil
}

// Append records one expression.
func (h *History) Append(expr string) error {
	_, err := h.db.Exec("INSERT INTO history (expr) VALUES (?)", expr)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	return nil
}

// Recent returns up to n expressions, newest first.
func (h *History) Recent(n int) ([]string, error) {
	rows, err := h.db.Query("SELECT expr FROM history ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var expr string
		if err := rows.Scan(&expr); err != nil {
			return nil, err
		}
		out = append(out, expr)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (h *History) Close() error {
	if h.db != nil {
		return h.db.Close()
	}
	return nil
}
