package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migrations is the ordered schema history. Entries are append-only; applied
// versions are recorded in schema_migrations and never re-run.
var migrations = []struct {
	version    int
	statements []string
}{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS weekly_rules (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
				start_minutes INTEGER NOT NULL CHECK (start_minutes >= 0),
				end_minutes INTEGER NOT NULL CHECK (end_minutes <= 1440 AND end_minutes > start_minutes),
				timezone TEXT NOT NULL,
				active INTEGER NOT NULL DEFAULT 1,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_weekly_rules_owner_weekday ON weekly_rules (owner_id, weekday)`,
			`CREATE TABLE IF NOT EXISTS availability_overrides (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				date TEXT NOT NULL,
				available INTEGER NOT NULL,
				start_minutes INTEGER,
				end_minutes INTEGER,
				timezone TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_overrides_owner_date ON availability_overrides (owner_id, date)`,
			`CREATE TABLE IF NOT EXISTS event_types (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				name TEXT NOT NULL,
				duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
				buffer_before_minutes INTEGER NOT NULL DEFAULT 0,
				buffer_after_minutes INTEGER NOT NULL DEFAULT 0,
				meeting_mode TEXT NOT NULL DEFAULT '',
				meeting_link_template TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS events (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				type_id TEXT,
				contact_id TEXT,
				lead_id TEXT,
				start_time TEXT NOT NULL,
				end_time TEXT NOT NULL,
				title TEXT NOT NULL,
				description TEXT,
				location TEXT,
				meeting_mode TEXT,
				status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'cancelled')),
				buffer_before_minutes INTEGER NOT NULL DEFAULT 0,
				buffer_after_minutes INTEGER NOT NULL DEFAULT 0,
				confirmation_code TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				CHECK (end_time > start_time)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_events_owner_status_start ON events (owner_id, status, start_time)`,
			`CREATE TABLE IF NOT EXISTS event_attendees (
				id TEXT PRIMARY KEY,
				event_id TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
				email TEXT NOT NULL,
				name TEXT,
				role TEXT NOT NULL DEFAULT 'attendee' CHECK (role IN ('organizer', 'attendee', 'optional')),
				status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'declined', 'tentative')),
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE (event_id, email)
			)`,
			`CREATE TABLE IF NOT EXISTS scheduling_links (
				id TEXT PRIMARY KEY,
				owner_id TEXT NOT NULL,
				event_type_id TEXT,
				slug TEXT NOT NULL UNIQUE,
				expires_at TEXT,
				max_uses INTEGER CHECK (max_uses IS NULL OR max_uses > 0),
				uses INTEGER NOT NULL DEFAULT 0,
				timezone TEXT NOT NULL,
				meeting_mode TEXT,
				min_lead_minutes INTEGER,
				max_horizon_days INTEGER,
				created_at TEXT NOT NULL,
				CHECK (max_uses IS NULL OR uses <= max_uses)
			)`,
		},
	},
}

// Migrate applies pending schema versions in order.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := cp.migrationApplied(ctx, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.statements {
				if _, err := tx.Exec(stmt); err != nil {
					return fmt.Errorf("sqlite: migration %d: %w", m.version, err)
				}
			}
			_, err := tx.Exec(
				"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
				m.version, time.Now().UTC().Format(timeLayout),
			)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (cp *ConnectionPool) migrationApplied(ctx context.Context, version int) (bool, error) {
	var count int
	err := cp.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: check migration %d: %w", version, err)
	}
	return count > 0, nil
}
