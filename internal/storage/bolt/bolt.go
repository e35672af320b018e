package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
	"go.etcd.io/bbolt"
)

const (
	bucketWatchEvents = "watch_events"
	bucketGraceDays   = "grace_days"
	bucketItemStats   = "item_stats"
	bucketWarnings    = "warning_events"
	bucketCatalog     = "catalog_items"
	bucketSettings    = "settings"

	settingsKey = "settings"
)

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{
			[]byte(bucketWatchEvents),
			[]byte(bucketGraceDays),
			[]byte(bucketItemStats),
			[]byte(bucketWarnings),
			[]byte(bucketCatalog),
			[]byte(bucketSettings),
		}

		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ledger returns the watch-event ledger store.
func (s *Store) Ledger() storage.LedgerStore { return &ledgerStore{db: s.db} }

// Warnings returns the warning audit store.
func (s *Store) Warnings() storage.WarningStore { return &warningStore{db: s.db} }

// Catalog returns the catalog store.
func (s *Store) Catalog() storage.CatalogStore { return &catalogStore{db: s.db} }

// Settings returns the settings store.
func (s *Store) Settings() storage.SettingsStore { return &settingsStore{db: s.db} }

func marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

func unmarshal(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}

// eventKey orders ledger entries by instant within a day-prefixed keyspace so
// a cursor seek on the day prefix yields the day's events in append order.
func eventKey(day string, ts time.Time, id string) string {
	return fmt.Sprintf("%s/%020d-%s", day, ts.UnixNano(), id)
}

func getBucketValue[T any](ctx context.Context, db *bbolt.DB, bucket string, key string) (*T, error) {
	var item *T
	err := db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return storage.ErrNotFound
		}
		value := b.Get([]byte(key))
		if value == nil {
			return storage.ErrNotFound
		}
		var result T
		if err := unmarshal(value, &result); err != nil {
			return err
		}
		item = &result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func putBucketValue(ctx context.Context, db *bbolt.DB, bucket string, key string, value any) error {
	data, err := marshal(value)
	if err != nil {
		return err
	}
	return db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucket)
		}
		return b.Put([]byte(key), data)
	})
}

// scanDayPrefix collects every value stored under the day's key prefix.
func scanDayPrefix[T any](ctx context.Context, db *bbolt.DB, bucket, day string) ([]T, error) {
	prefix := []byte(day + "/")
	items := make([]T, 0)
	return items, db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var item T
			if err := unmarshal(v, &item); err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}
