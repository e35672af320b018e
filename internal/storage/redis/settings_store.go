package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goodtune/tubetime/internal/storage"
	"github.com/redis/go-redis/v9"
)

const settingsKey = "tubetime:settings"

type settingsStore struct {
	client *redis.Client
}

// Get retrieves the stored settings
func (s *settingsStore) Get(ctx context.Context) (*storage.Settings, error) {
	data, err := s.client.HGetAll(ctx, settingsKey).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}

	limit, err := strconv.Atoi(data["daily_limit_minutes"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse daily_limit_minutes: %w", err)
	}
	gridSize, err := strconv.Atoi(data["grid_size"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse grid_size: %w", err)
	}

	return &storage.Settings{DailyLimitMinutes: limit, GridSize: gridSize}, nil
}

// Put stores the settings
func (s *settingsStore) Put(ctx context.Context, settings storage.Settings) error {
	return s.client.HSet(ctx, settingsKey, map[string]interface{}{
		"daily_limit_minutes": settings.DailyLimitMinutes,
		"grid_size":           settings.GridSize,
	}).Err()
}
