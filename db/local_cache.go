package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

const localStorageTable = "local_storage"

// LocalCache is a string-keyed value store on SQLite. It plays the role of
// browser local storage: values are opaque strings (JSON for collections).
type LocalCache struct {
	db *sql.DB
}

// OpenLocalCache opens (or creates) the cache database at path and makes sure
// the storage table exists.
func OpenLocalCache(path string) (*LocalCache, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache %s: %w", path, err)
	}
	// A single connection keeps writes ordered and avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	c := &LocalCache{db: conn}
	if err := c.Init(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// Init creates the storage table when it is missing
func (c *LocalCache) Init() error {
	exists, err := checkIfTableExists(c.db, localStorageTable)
	if err != nil {
		return fmt.Errorf("failed to inspect local cache schema: %w", err)
	}
	if exists {
		return nil
	}
	_, err = c.db.Exec(`
		CREATE TABLE local_storage (
			key TEXT NOT NULL PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create local cache table: %w", err)
	}
	return nil
}

// Get returns the value stored under key. found is false when the key was
// never set or has been removed.
func (c *LocalCache) Get(key string) (value string, found bool, err error) {
	row := c.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		log.Printf("Error reading local cache key %s: %v", key, err)
		return "", false, fmt.Errorf("failed to read local cache key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (c *LocalCache) Set(key, value string) error {
	_, err := c.db.Exec(`
		INSERT INTO local_storage(key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value;
	`, key, value)
	if err != nil {
		log.Printf("Error writing local cache key %s: %v", key, err)
		return fmt.Errorf("failed to write local cache key %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (c *LocalCache) Remove(key string) error {
	if _, err := c.db.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		log.Printf("Error removing local cache key %s: %v", key, err)
		return fmt.Errorf("failed to remove local cache key %s: %w", key, err)
	}
	return nil
}

func (c *LocalCache) Close() error {
	return c.db.Close()
}

func checkIfTableExists(db *sql.DB, tableName string) (bool, error) {
	query := `
		SELECT
			name
		FROM
			sqlite_master
		WHERE 1 = 1
			AND type = 'table'
			AND name = ?
	`

	rows, err := db.Query(query, tableName)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	return rows.Next(), rows.Err()
}
