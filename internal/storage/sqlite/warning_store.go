package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goodtune/tubetime/internal/storage"
)

// warningStore implements storage.WarningStore on SQLite.
type warningStore struct {
	db *sql.DB
}

func (s *warningStore) AppendWarningEvent(ctx context.Context, ev storage.WarningEvent) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO warning_events(tier, day, shown_at) VALUES (?, ?, ?)
`, int(ev.Tier), storage.DayKey(ev.ShownAt), ts(ev.ShownAt))
	if err != nil {
		return fmt.Errorf("append warning event: %w", err)
	}
	return nil
}

func (s *warningStore) ListWarningEventsForDay(ctx context.Context, day string) ([]storage.WarningEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT tier, shown_at FROM warning_events WHERE day = ? ORDER BY shown_at ASC, rowid ASC
`, day)
	if err != nil {
		return nil, fmt.Errorf("list warning events: %w", err)
	}
	defer rows.Close()

	events := make([]storage.WarningEvent, 0)
	for rows.Next() {
		var (
			tier    int
			shownAt string
		)
		if err := rows.Scan(&tier, &shownAt); err != nil {
			return nil, fmt.Errorf("scan warning event: %w", err)
		}
		ev := storage.WarningEvent{Tier: storage.WarningTier(tier)}
		if ev.ShownAt, err = parseTS(shownAt); err != nil {
			return nil, fmt.Errorf("parse shown_at: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
