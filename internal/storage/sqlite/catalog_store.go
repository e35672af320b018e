package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
)

// catalogStore implements storage.CatalogStore on SQLite.
type catalogStore struct {
	db *sql.DB
}

func (s *catalogStore) UpsertItem(ctx context.Context, item storage.VideoItem) error {
	if item.ID == "" {
		return fmt.Errorf("catalog item missing id")
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO catalog_items(id, title, channel_title, duration_seconds, banned, available, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title=excluded.title,
	channel_title=excluded.channel_title,
	duration_seconds=excluded.duration_seconds,
	banned=excluded.banned,
	available=excluded.available,
	updated_at=excluded.updated_at
`, item.ID, item.Title, item.ChannelTitle, item.DurationSeconds,
		boolToInt(item.Banned), boolToInt(item.Available), ts(item.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert catalog item: %w", err)
	}
	return nil
}

func (s *catalogStore) GetItem(ctx context.Context, id string) (*storage.VideoItem, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, channel_title, duration_seconds, banned, available, updated_at
FROM catalog_items WHERE id = ?
`, id)
	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog item: %w", err)
	}
	return item, nil
}

func (s *catalogStore) ListItems(ctx context.Context) ([]storage.VideoItem, error) {
	return s.list(ctx, `
SELECT id, title, channel_title, duration_seconds, banned, available, updated_at
FROM catalog_items ORDER BY id ASC
`)
}

func (s *catalogStore) ListAvailable(ctx context.Context) ([]storage.VideoItem, error) {
	return s.list(ctx, `
SELECT id, title, channel_title, duration_seconds, banned, available, updated_at
FROM catalog_items WHERE available = 1 AND banned = 0 ORDER BY id ASC
`)
}

func (s *catalogStore) list(ctx context.Context, query string) ([]storage.VideoItem, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}
	defer rows.Close()

	items := make([]storage.VideoItem, 0)
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *catalogStore) SetBanned(ctx context.Context, id string, banned bool) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE catalog_items SET banned = ?, updated_at = ? WHERE id = ?
`, boolToInt(banned), ts(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set banned: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set banned rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanItem(scan func(dest ...any) error) (*storage.VideoItem, error) {
	var (
		item      storage.VideoItem
		banned    int
		available int
		updatedAt string
	)
	if err := scan(&item.ID, &item.Title, &item.ChannelTitle, &item.DurationSeconds, &banned, &available, &updatedAt); err != nil {
		return nil, err
	}
	item.Banned = banned != 0
	item.Available = available != 0
	var err error
	if item.UpdatedAt, err = parseTS(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &item, nil
}
