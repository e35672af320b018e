package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	upSQL   string
}

var migrations = []migration{
	{
		version: 1,
		upSQL: `
CREATE TABLE IF NOT EXISTS watch_events (
	id TEXT PRIMARY KEY,
	item_id TEXT NOT NULL,
	channel_title TEXT NOT NULL DEFAULT '',
	day TEXT NOT NULL,
	watched_at TEXT NOT NULL,
	seconds_watched INTEGER NOT NULL CHECK(seconds_watched >= 0),
	completed INTEGER NOT NULL DEFAULT 0,
	manual_play INTEGER NOT NULL DEFAULT 0,
	grace_play INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS watch_events_day_watched_at
ON watch_events(day, watched_at);

CREATE INDEX IF NOT EXISTS watch_events_item_id
ON watch_events(item_id);

CREATE TABLE IF NOT EXISTS warning_events (
	rowid INTEGER PRIMARY KEY AUTOINCREMENT,
	tier INTEGER NOT NULL CHECK(tier IN (10, 5, 2)),
	day TEXT NOT NULL,
	shown_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS warning_events_day
ON warning_events(day, shown_at);

CREATE TABLE IF NOT EXISTS catalog_items (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	channel_title TEXT NOT NULL DEFAULT '',
	duration_seconds INTEGER NOT NULL CHECK(duration_seconds >= 0),
	banned INTEGER NOT NULL DEFAULT 0,
	available INTEGER NOT NULL DEFAULT 1,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK(id = 1),
	daily_limit_minutes INTEGER NOT NULL,
	grid_size INTEGER NOT NULL
);
`,
	},
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations(version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.upSQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, datetime('now'))`, m.version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}
