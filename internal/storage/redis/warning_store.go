package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
	"github.com/redis/go-redis/v9"
)

type warningStore struct {
	client *redis.Client
}

// AppendWarningEvent pushes the warning onto the day's audit list
func (s *warningStore) AppendWarningEvent(ctx context.Context, ev storage.WarningEvent) error {
	dayKey := fmt.Sprintf("tubetime:warnings:%s", storage.DayKey(ev.ShownAt))
	entry := fmt.Sprintf("%d|%s", int(ev.Tier), ev.ShownAt.UTC().Format(time.RFC3339Nano))
	return s.client.RPush(ctx, dayKey, entry).Err()
}

// ListWarningEventsForDay returns the day's warnings in append order
func (s *warningStore) ListWarningEventsForDay(ctx context.Context, day string) ([]storage.WarningEvent, error) {
	dayKey := fmt.Sprintf("tubetime:warnings:%s", day)

	entries, err := s.client.LRange(ctx, dayKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	events := make([]storage.WarningEvent, 0, len(entries))
	for _, entry := range entries {
		ev, err := parseWarningEntry(entry)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}

	return events, nil
}

func parseWarningEntry(entry string) (*storage.WarningEvent, error) {
	tierPart, tsPart, ok := strings.Cut(entry, "|")
	if !ok {
		return nil, fmt.Errorf("malformed warning entry: %q", entry)
	}

	tier, err := strconv.Atoi(tierPart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse warning tier: %w", err)
	}

	shownAt, err := time.Parse(time.RFC3339Nano, tsPart)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shown_at: %w", err)
	}

	return &storage.WarningEvent{Tier: storage.WarningTier(tier), ShownAt: shownAt}, nil
}
