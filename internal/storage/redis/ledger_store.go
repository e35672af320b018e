package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
	"github.com/redis/go-redis/v9"
)

type ledgerStore struct {
	client *redis.Client
}

// AppendWatchEvent stores the event hash, indexes it into its day's sorted
// set, and bumps the per-item aggregates.
func (s *ledgerStore) AppendWatchEvent(ctx context.Context, ev storage.WatchEvent) error {
	day := storage.DayKey(ev.WatchedAt)
	eventKey := fmt.Sprintf("tubetime:watch:%s", ev.ID)
	dayKey := fmt.Sprintf("tubetime:watch:day:%s", day)

	exists, err := s.client.Exists(ctx, eventKey).Result()
	if err != nil {
		return err
	}
	if exists > 0 {
		return fmt.Errorf("watch event already exists: %s", ev.ID)
	}

	// Read current last_watched_at up front so the pipeline can keep the max.
	var lastWatched time.Time
	statsKey := fmt.Sprintf("tubetime:stats:%s", ev.ItemID)
	if ev.ItemID != "" {
		raw, err := s.client.HGet(ctx, statsKey, "last_watched_at").Result()
		if err != nil && err != redis.Nil {
			return err
		}
		if err == nil {
			lastWatched, _ = time.Parse(time.RFC3339Nano, raw)
		}
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, eventKey, map[string]interface{}{
		"id":              ev.ID,
		"item_id":         ev.ItemID,
		"channel_title":   ev.ChannelTitle,
		"watched_at":      ev.WatchedAt.UTC().Format(time.RFC3339Nano),
		"seconds_watched": ev.SecondsWatched,
		"completed":       boolField(ev.Completed),
		"manual_play":     boolField(ev.ManualPlay),
		"grace_play":      boolField(ev.GracePlay),
	})
	pipe.ZAdd(ctx, dayKey, redis.Z{Score: float64(ev.WatchedAt.UnixNano()), Member: ev.ID})

	if ev.GracePlay {
		pipe.Set(ctx, fmt.Sprintf("tubetime:grace:%s", day), ev.ID, 0)
	}

	if ev.ItemID != "" {
		pipe.SAdd(ctx, "tubetime:stats:index", ev.ItemID)
		pipe.HSet(ctx, statsKey, "item_id", ev.ItemID)
		pipe.HIncrBy(ctx, statsKey, "plays", 1)
		if ev.Completed {
			pipe.HIncrBy(ctx, statsKey, "completions", 1)
		} else {
			pipe.HSetNX(ctx, statsKey, "completions", 0)
		}
		if ev.WatchedAt.After(lastWatched) {
			pipe.HSet(ctx, statsKey, "last_watched_at", ev.WatchedAt.UTC().Format(time.RFC3339Nano))
		}
	}

	_, err = pipe.Exec(ctx)
	return err
}

// ListWatchEventsForDay returns the day's events ordered by watched_at
func (s *ledgerStore) ListWatchEventsForDay(ctx context.Context, day string) ([]storage.WatchEvent, error) {
	dayKey := fmt.Sprintf("tubetime:watch:day:%s", day)

	ids, err := s.client.ZRange(ctx, dayKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []storage.WatchEvent{}, nil
	}

	// Use pipeline for efficient batch retrieval
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, fmt.Sprintf("tubetime:watch:%s", id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	events := make([]storage.WatchEvent, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		ev, err := parseWatchEvent(data)
		if err == nil {
			events = append(events, *ev)
		}
	}

	return events, nil
}

// GracePlayedOn reports whether a grace play was recorded for the day
func (s *ledgerStore) GracePlayedOn(ctx context.Context, day string) (bool, error) {
	exists, err := s.client.Exists(ctx, fmt.Sprintf("tubetime:grace:%s", day)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// ItemStats returns the per-item aggregates maintained on append
func (s *ledgerStore) ItemStats(ctx context.Context) (map[string]storage.ItemStats, error) {
	ids, err := s.client.SMembers(ctx, "tubetime:stats:index").Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return map[string]storage.ItemStats{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, fmt.Sprintf("tubetime:stats:%s", id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	stats := make(map[string]storage.ItemStats, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		item, err := parseItemStats(data)
		if err == nil {
			stats[item.ItemID] = *item
		}
	}

	return stats, nil
}
