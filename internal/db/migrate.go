package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS institutions (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('school', 'college'))
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash BYTEA NOT NULL,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		mobile_number TEXT NOT NULL DEFAULT '',
		institution_id BIGINT NOT NULL REFERENCES institutions (id),
		role TEXT NOT NULL CHECK (role IN ('student', 'admin')),
		refresh_token TEXT NOT NULL DEFAULT '',
		reset_code_hash TEXT NOT NULL DEFAULT '',
		reset_code_expires TIMESTAMPTZ,
		reset_verified BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		institution_id BIGINT NOT NULL REFERENCES institutions (id),
		kind TEXT NOT NULL CHECK (kind IN ('school', 'college')),
		event_date DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS feedbacks (
		id TEXT PRIMARY KEY,
		ref_code TEXT NOT NULL,
		user_id BIGINT NOT NULL REFERENCES accounts (id),
		event_id BIGINT NOT NULL REFERENCES events (id),
		rating INT NOT NULL CHECK (rating BETWEEN 1 AND 5),
		description TEXT NOT NULL,
		improvement TEXT NOT NULL DEFAULT '',
		sentiment_score DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_feedbacks_event_id ON feedbacks (event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_feedbacks_user_id ON feedbacks (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_institution_id ON events (institution_id)`,
}

// Migrate applies the schema. Statements are idempotent so this runs on every
// startup.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
