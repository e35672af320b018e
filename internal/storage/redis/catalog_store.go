package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
	"github.com/redis/go-redis/v9"
)

type catalogStore struct {
	client *redis.Client
}

func itemKey(id string) string {
	return fmt.Sprintf("tubetime:item:%s", id)
}

// UpsertItem creates or replaces a catalog item
func (s *catalogStore) UpsertItem(ctx context.Context, item storage.VideoItem) error {
	if item.ID == "" {
		return fmt.Errorf("catalog item missing id")
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, itemKey(item.ID), map[string]interface{}{
		"id":               item.ID,
		"title":            item.Title,
		"channel_title":    item.ChannelTitle,
		"duration_seconds": item.DurationSeconds,
		"banned":           boolField(item.Banned),
		"available":        boolField(item.Available),
		"updated_at":       item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	pipe.SAdd(ctx, "tubetime:items:index", item.ID)

	_, err := pipe.Exec(ctx)
	return err
}

// GetItem retrieves a catalog item by ID
func (s *catalogStore) GetItem(ctx context.Context, id string) (*storage.VideoItem, error) {
	data, err := s.client.HGetAll(ctx, itemKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}
	return parseVideoItem(data)
}

// ListItems returns every catalog item
func (s *catalogStore) ListItems(ctx context.Context) ([]storage.VideoItem, error) {
	return s.list(ctx, func(storage.VideoItem) bool { return true })
}

// ListAvailable returns items that are available and not banned
func (s *catalogStore) ListAvailable(ctx context.Context) ([]storage.VideoItem, error) {
	return s.list(ctx, func(item storage.VideoItem) bool {
		return item.Available && !item.Banned
	})
}

func (s *catalogStore) list(ctx context.Context, keep func(storage.VideoItem) bool) ([]storage.VideoItem, error) {
	ids, err := s.client.SMembers(ctx, "tubetime:items:index").Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []storage.VideoItem{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, itemKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	items := make([]storage.VideoItem, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		item, err := parseVideoItem(data)
		if err == nil && keep(*item) {
			items = append(items, *item)
		}
	}

	return items, nil
}

// SetBanned flips the ban flag on an existing item
func (s *catalogStore) SetBanned(ctx context.Context, id string, banned bool) error {
	exists, err := s.client.Exists(ctx, itemKey(id)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return storage.ErrNotFound
	}

	return s.client.HSet(ctx, itemKey(id), map[string]interface{}{
		"banned":     boolField(banned),
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}).Err()
}
