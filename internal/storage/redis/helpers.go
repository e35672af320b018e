package redis

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
)

// parseWatchEvent converts a Redis hash to WatchEvent
func parseWatchEvent(data map[string]string) (*storage.WatchEvent, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	watchedAt, err := time.Parse(time.RFC3339Nano, data["watched_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse watched_at: %w", err)
	}

	seconds, err := strconv.ParseInt(data["seconds_watched"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seconds_watched: %w", err)
	}

	return &storage.WatchEvent{
		ID:             data["id"],
		ItemID:         data["item_id"],
		ChannelTitle:   data["channel_title"],
		WatchedAt:      watchedAt,
		SecondsWatched: seconds,
		Completed:      data["completed"] == "1",
		ManualPlay:     data["manual_play"] == "1",
		GracePlay:      data["grace_play"] == "1",
	}, nil
}

// parseItemStats converts a Redis hash to ItemStats
func parseItemStats(data map[string]string) (*storage.ItemStats, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	plays, err := strconv.ParseInt(data["plays"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plays: %w", err)
	}

	completions, err := strconv.ParseInt(data["completions"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse completions: %w", err)
	}

	lastWatchedAt, err := time.Parse(time.RFC3339Nano, data["last_watched_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse last_watched_at: %w", err)
	}

	return &storage.ItemStats{
		ItemID:        data["item_id"],
		Plays:         plays,
		Completions:   completions,
		LastWatchedAt: lastWatchedAt,
	}, nil
}

// parseVideoItem converts a Redis hash to VideoItem
func parseVideoItem(data map[string]string) (*storage.VideoItem, error) {
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	duration, err := strconv.ParseInt(data["duration_seconds"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse duration_seconds: %w", err)
	}

	updatedAt, err := time.Parse(time.RFC3339Nano, data["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &storage.VideoItem{
		ID:              data["id"],
		Title:           data["title"],
		ChannelTitle:    data["channel_title"],
		DurationSeconds: duration,
		Banned:          data["banned"] == "1",
		Available:       data["available"] == "1",
		UpdatedAt:       updatedAt,
	}, nil
}

func boolField(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
