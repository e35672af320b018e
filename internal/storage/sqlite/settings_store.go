package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goodtune/tubetime/internal/storage"
)

// settingsStore implements storage.SettingsStore on SQLite. The table holds a
// single row.
type settingsStore struct {
	db *sql.DB
}

func (s *settingsStore) Get(ctx context.Context) (*storage.Settings, error) {
	var settings storage.Settings
	err := s.db.QueryRowContext(ctx, `
SELECT daily_limit_minutes, grid_size FROM settings WHERE id = 1
`).Scan(&settings.DailyLimitMinutes, &settings.GridSize)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

func (s *settingsStore) Put(ctx context.Context, settings storage.Settings) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings(id, daily_limit_minutes, grid_size)
VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	daily_limit_minutes=excluded.daily_limit_minutes,
	grid_size=excluded.grid_size
`, settings.DailyLimitMinutes, settings.GridSize)
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}
