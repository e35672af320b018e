package bolt

import (
	"context"

	"github.com/goodtune/tubetime/internal/storage"
	"go.etcd.io/bbolt"
)

// settingsStore implements storage.SettingsStore using BoltDB.
type settingsStore struct {
	db *bbolt.DB
}

func (s *settingsStore) Get(ctx context.Context) (*storage.Settings, error) {
	return getBucketValue[storage.Settings](ctx, s.db, bucketSettings, settingsKey)
}

func (s *settingsStore) Put(ctx context.Context, settings storage.Settings) error {
	return putBucketValue(ctx, s.db, bucketSettings, settingsKey, settings)
}
