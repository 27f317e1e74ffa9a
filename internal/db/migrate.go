package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate applies the schema. Idempotent, safe to run on every boot.
//
// The event row is the single aggregate record for capacity accounting:
// registered_count and waitlist live on it so the conditional increment and
// the head-pop both hit one row. Registrations are keyed by the
// (user_id, event_id) pair with a secondary index for event-centric listings.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id               TEXT PRIMARY KEY,
			title            TEXT NOT NULL,
			description      TEXT NOT NULL DEFAULT '',
			date             TEXT NOT NULL,
			location         TEXT NOT NULL,
			capacity         INT NOT NULL CHECK (capacity > 0),
			organizer        TEXT NOT NULL,
			status           TEXT NOT NULL,
			registered_count INT NOT NULL DEFAULT 0 CHECK (registered_count >= 0),
			waitlist_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			waitlist         TEXT[] NOT NULL DEFAULT '{}',
			created_at       TIMESTAMPTZ NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS registrations (
			user_id       TEXT NOT NULL,
			event_id      TEXT NOT NULL,
			status        TEXT NOT NULL,
			registered_at TIMESTAMPTZ NOT NULL,
			event_title   TEXT NOT NULL DEFAULT '',
			event_date    TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (user_id, event_id)
		)`,
		`CREATE INDEX IF NOT EXISTS registrations_event_idx
			ON registrations (event_id, registered_at, user_id)`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
