package bolt

import (
	"context"

	"github.com/goodtune/tubetime/internal/storage"
	"go.etcd.io/bbolt"
)

// warningStore implements storage.WarningStore using BoltDB.
type warningStore struct {
	db *bbolt.DB
}

func (s *warningStore) AppendWarningEvent(ctx context.Context, ev storage.WarningEvent) error {
	day := storage.DayKey(ev.ShownAt)
	key := eventKey(day, ev.ShownAt, tierSuffix(ev.Tier))
	return putBucketValue(ctx, s.db, bucketWarnings, key, ev)
}

func (s *warningStore) ListWarningEventsForDay(ctx context.Context, day string) ([]storage.WarningEvent, error) {
	return scanDayPrefix[storage.WarningEvent](ctx, s.db, bucketWarnings, day)
}

func tierSuffix(t storage.WarningTier) string {
	switch t {
	case storage.WarningTier10:
		return "t10"
	case storage.WarningTier5:
		return "t05"
	default:
		return "t02"
	}
}
