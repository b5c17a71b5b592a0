// Package db opens the optional PostgreSQL catalog database.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS packages (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL CHECK (category IN ('local', 'international')),
    title TEXT NOT NULL,
    details TEXT NOT NULL,
    price TEXT NOT NULL,
    image_path TEXT NOT NULL,
    preview_image TEXT NOT NULL,
    position BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS packages_category_position_idx ON packages (category, position DESC);
`

// InitPostgres connects to dsn and creates the packages table if needed.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
