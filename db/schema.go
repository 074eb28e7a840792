// ABOUTME: Database schema definitions and migrations
// ABOUTME: One records table holding JSON rows keyed by store table name
package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	table_name TEXT NOT NULL,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_table_name ON records(table_name);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS records (
	id BIGSERIAL PRIMARY KEY,
	table_name TEXT NOT NULL,
	data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_table_name ON records(table_name);
`

// InitSchema creates the records table for the connection's driver.
func InitSchema(db *sqlx.DB) error {
	ddl := sqliteSchema
	if db.DriverName() == DriverPostgres {
		ddl = postgresSchema
	}
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
