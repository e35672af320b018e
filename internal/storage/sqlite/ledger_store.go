package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goodtune/tubetime/internal/storage"
)

// ledgerStore implements storage.LedgerStore on SQLite. Aggregates are
// computed at query time; the ledger table stays the single source of truth.
type ledgerStore struct {
	db *sql.DB
}

func (s *ledgerStore) AppendWatchEvent(ctx context.Context, ev storage.WatchEvent) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO watch_events(id, item_id, channel_title, day, watched_at, seconds_watched, completed, manual_play, grace_play)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, ev.ID, ev.ItemID, ev.ChannelTitle, storage.DayKey(ev.WatchedAt), ts(ev.WatchedAt), ev.SecondsWatched,
		boolToInt(ev.Completed), boolToInt(ev.ManualPlay), boolToInt(ev.GracePlay))
	if err != nil {
		return fmt.Errorf("append watch event: %w", err)
	}
	return nil
}

func (s *ledgerStore) ListWatchEventsForDay(ctx context.Context, day string) ([]storage.WatchEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, item_id, channel_title, watched_at, seconds_watched, completed, manual_play, grace_play
FROM watch_events
WHERE day = ?
ORDER BY watched_at ASC, id ASC
`, day)
	if err != nil {
		return nil, fmt.Errorf("list watch events: %w", err)
	}
	defer rows.Close()

	events := make([]storage.WatchEvent, 0)
	for rows.Next() {
		var (
			ev        storage.WatchEvent
			watchedAt string
			completed int
			manual    int
			grace     int
		)
		if err := rows.Scan(&ev.ID, &ev.ItemID, &ev.ChannelTitle, &watchedAt, &ev.SecondsWatched, &completed, &manual, &grace); err != nil {
			return nil, fmt.Errorf("scan watch event: %w", err)
		}
		if ev.WatchedAt, err = parseTS(watchedAt); err != nil {
			return nil, fmt.Errorf("parse watched_at: %w", err)
		}
		ev.Completed = completed != 0
		ev.ManualPlay = manual != 0
		ev.GracePlay = grace != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *ledgerStore) GracePlayedOn(ctx context.Context, day string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
SELECT 1 FROM watch_events WHERE day = ? AND grace_play = 1 LIMIT 1
`, day).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check grace day: %w", err)
	}
	return true, nil
}

func (s *ledgerStore) ItemStats(ctx context.Context) (map[string]storage.ItemStats, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT item_id, COUNT(*), SUM(completed), MAX(watched_at)
FROM watch_events
WHERE item_id != ''
GROUP BY item_id
`)
	if err != nil {
		return nil, fmt.Errorf("aggregate item stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]storage.ItemStats)
	for rows.Next() {
		var (
			item    storage.ItemStats
			lastRaw string
		)
		if err := rows.Scan(&item.ItemID, &item.Plays, &item.Completions, &lastRaw); err != nil {
			return nil, fmt.Errorf("scan item stats: %w", err)
		}
		if item.LastWatchedAt, err = parseTS(lastRaw); err != nil {
			return nil, fmt.Errorf("parse last watched: %w", err)
		}
		stats[item.ItemID] = item
	}
	return stats, rows.Err()
}
