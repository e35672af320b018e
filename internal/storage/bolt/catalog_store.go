package bolt

import (
	"context"
	"fmt"

	"github.com/goodtune/tubetime/internal/storage"
	"go.etcd.io/bbolt"
)

// catalogStore implements storage.CatalogStore using BoltDB.
type catalogStore struct {
	db *bbolt.DB
}

func (s *catalogStore) UpsertItem(ctx context.Context, item storage.VideoItem) error {
	if item.ID == "" {
		return fmt.Errorf("catalog item missing id")
	}
	return putBucketValue(ctx, s.db, bucketCatalog, item.ID, item)
}

func (s *catalogStore) GetItem(ctx context.Context, id string) (*storage.VideoItem, error) {
	return getBucketValue[storage.VideoItem](ctx, s.db, bucketCatalog, id)
}

func (s *catalogStore) ListItems(ctx context.Context) ([]storage.VideoItem, error) {
	return s.list(ctx, func(storage.VideoItem) bool { return true })
}

func (s *catalogStore) ListAvailable(ctx context.Context) ([]storage.VideoItem, error) {
	return s.list(ctx, func(item storage.VideoItem) bool {
		return item.Available && !item.Banned
	})
}

func (s *catalogStore) list(ctx context.Context, keep func(storage.VideoItem) bool) ([]storage.VideoItem, error) {
	items := make([]storage.VideoItem, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketCatalog))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var item storage.VideoItem
			if err := unmarshal(v, &item); err != nil {
				return err
			}
			if keep(item) {
				items = append(items, item)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *catalogStore) SetBanned(ctx context.Context, id string, banned bool) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketCatalog))
		raw := b.Get([]byte(id))
		if raw == nil {
			return storage.ErrNotFound
		}
		var item storage.VideoItem
		if err := unmarshal(raw, &item); err != nil {
			return err
		}
		item.Banned = banned
		data, err := marshal(item)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
}
