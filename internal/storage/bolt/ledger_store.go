package bolt

import (
	"context"
	"fmt"

	"github.com/goodtune/tubetime/internal/storage"
	"go.etcd.io/bbolt"
)

// ledgerStore implements storage.LedgerStore using BoltDB. Events are keyed by
// day prefix and instant; per-item aggregates are maintained in the same
// transaction as the append.
type ledgerStore struct {
	db *bbolt.DB
}

func (s *ledgerStore) AppendWatchEvent(ctx context.Context, ev storage.WatchEvent) error {
	day := storage.DayKey(ev.WatchedAt)
	key := []byte(eventKey(day, ev.WatchedAt, ev.ID))

	data, err := marshal(ev)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		events := tx.Bucket([]byte(bucketWatchEvents))
		if events.Get(key) != nil {
			return fmt.Errorf("watch event already exists: %s", ev.ID)
		}
		if err := events.Put(key, data); err != nil {
			return fmt.Errorf("append watch event: %w", err)
		}

		if ev.GracePlay {
			grace := tx.Bucket([]byte(bucketGraceDays))
			if err := grace.Put([]byte(day), []byte(ev.ID)); err != nil {
				return fmt.Errorf("mark grace day: %w", err)
			}
		}

		return s.bumpItemStats(tx, ev)
	})
}

// bumpItemStats keeps the selection-weighting aggregates current without a
// full ledger scan on every grid build.
func (s *ledgerStore) bumpItemStats(tx *bbolt.Tx, ev storage.WatchEvent) error {
	if ev.ItemID == "" {
		return nil
	}

	b := tx.Bucket([]byte(bucketItemStats))

	stats := storage.ItemStats{ItemID: ev.ItemID}
	if raw := b.Get([]byte(ev.ItemID)); raw != nil {
		if err := unmarshal(raw, &stats); err != nil {
			return err
		}
	}

	stats.Plays++
	if ev.Completed {
		stats.Completions++
	}
	if ev.WatchedAt.After(stats.LastWatchedAt) {
		stats.LastWatchedAt = ev.WatchedAt
	}

	data, err := marshal(stats)
	if err != nil {
		return err
	}
	return b.Put([]byte(ev.ItemID), data)
}

func (s *ledgerStore) ListWatchEventsForDay(ctx context.Context, day string) ([]storage.WatchEvent, error) {
	return scanDayPrefix[storage.WatchEvent](ctx, s.db, bucketWatchEvents, day)
}

func (s *ledgerStore) GracePlayedOn(ctx context.Context, day string) (bool, error) {
	played := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketGraceDays))
		played = b != nil && b.Get([]byte(day)) != nil
		return nil
	})
	return played, err
}

func (s *ledgerStore) ItemStats(ctx context.Context) (map[string]storage.ItemStats, error) {
	stats := make(map[string]storage.ItemStats)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketItemStats))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var item storage.ItemStats
			if err := unmarshal(v, &item); err != nil {
				return err
			}
			stats[string(k)] = item
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
