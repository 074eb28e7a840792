// ABOUTME: Database connection management and initialization
// ABOUTME: Opens SQLite with WAL mode at an XDG path, or PostgreSQL from a URL
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Driver names understood by Open.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// OpenDatabase opens (and creates) a SQLite database file.
func OpenDatabase(path string) (*sqlx.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return Open(DriverSQLite, path+"?_journal_mode=WAL")
}

// OpenPostgres connects to a PostgreSQL database.
func OpenPostgres(url string) (*sqlx.DB, error) {
	return Open(DriverPostgres, url)
}

// Open connects with the given driver and initializes the schema.
func Open(driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// Configure connection pool for SQLite (avoid database locked errors)
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
