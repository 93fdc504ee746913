// Package store persists registered search roots, favourite directories and
// small settings in SQLite. Tag membership is never stored; it lives in the
// file names.
package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/tagbrowse/internal/debug"
)

// Setting keys
const (
	SettingLastPath = "last_path"
)

type DB struct {
	conn *sql.DB
}

// Open initializes the database connection and schema
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Performance Tuning
	// WAL mode allows simultaneous readers and writers
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, err
	}
	// Synchronous NORMAL is safe against app crashes, faster than FULL
	if _, err := db.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS search_roots (
			path TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS favorites (
			path TEXT PRIMARY KEY,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, q := range schema {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	debug.Log(debug.STORE, "Open: %s", dbPath)
	return &DB{conn: db}, nil
}

// listPaths returns the paths of table in insertion order.
func (d *DB) listPaths(table string) ([]string, error) {
	rows, err := d.conn.Query("SELECT path FROM " + table + " ORDER BY rowid ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

func (d *DB) addPath(table, path string) error {
	// INSERT OR IGNORE keeps the original position of duplicates
	_, err := d.conn.Exec("INSERT OR IGNORE INTO "+table+" (path) VALUES (?)", path)
	if err != nil {
		log.Printf("Store Error: %v", err)
	}
	return err
}

func (d *DB) removePath(table, path string) error {
	_, err := d.conn.Exec("DELETE FROM "+table+" WHERE path = ?", path)
	if err != nil {
		log.Printf("Store Error: %v", err)
	}
	return err
}

// SearchRoots returns the registered search roots in registration order.
func (d *DB) SearchRoots() ([]string, error) {
	return d.listPaths("search_roots")
}

// AddSearchRoot registers path; an existing path keeps its position.
func (d *DB) AddSearchRoot(path string) error {
	debug.Log(debug.STORE, "AddSearchRoot: %s", path)
	return d.addPath("search_roots", path)
}

// RemoveSearchRoot unregisters path.
func (d *DB) RemoveSearchRoot(path string) error {
	debug.Log(debug.STORE, "RemoveSearchRoot: %s", path)
	return d.removePath("search_roots", path)
}

// Favorites returns the favourite directories in the order they were added.
func (d *DB) Favorites() ([]string, error) {
	return d.listPaths("favorites")
}

// AddFavorite adds path to the favourites.
func (d *DB) AddFavorite(path string) error {
	return d.addPath("favorites", path)
}

// RemoveFavorite removes path from the favourites.
func (d *DB) RemoveFavorite(path string) error {
	return d.removePath("favorites", path)
}

// Settings returns every stored setting.
func (d *DB) Settings() (map[string]string, error) {
	rows, err := d.conn.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// Setting returns one setting and whether it was set.
func (d *DB) Setting(key string) (string, bool, error) {
	var value string
	err := d.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SaveSetting upserts a setting.
func (d *DB) SaveSetting(key, value string) error {
	_, err := d.conn.Exec("INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		log.Printf("Store Error saving setting: %v", err)
	}
	return err
}

func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}
