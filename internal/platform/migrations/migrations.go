// Package migrations applies the database schema in order. Statements are
// idempotent so the server can run them on every start.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'user',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL,
		CONSTRAINT users_username_key UNIQUE (username),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL,
		CONSTRAINT genres_name_key UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS artists (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		biography  TEXT NOT NULL DEFAULT '',
		multimedia TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS musical_works (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		genre_id    TEXT NOT NULL REFERENCES genres(id) ON DELETE RESTRICT,
		artist_id   TEXT NOT NULL REFERENCES artists(id) ON DELETE RESTRICT,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id              TEXT PRIMARY KEY,
		user_id         TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		musical_work_id TEXT NOT NULL REFERENCES musical_works(id) ON DELETE CASCADE,
		rating          INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		comment         TEXT NOT NULL DEFAULT '',
		is_approved     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL,
		CONSTRAINT reviews_user_work_key UNIQUE (user_id, musical_work_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_musical_works_genre ON musical_works (genre_id)`,
	`CREATE INDEX IF NOT EXISTS idx_musical_works_artist ON musical_works (artist_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_work ON reviews (musical_work_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_pending ON reviews (is_approved) WHERE NOT is_approved`,
}

// Apply executes all schema statements in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// Count returns the number of schema statements. Exposed for tests.
func Count() int {
	return len(statements)
}
