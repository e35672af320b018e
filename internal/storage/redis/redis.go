package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/tubetime/internal/config"
	"github.com/goodtune/tubetime/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Store implements the storage.Store interface using Redis
type Store struct {
	client        *redis.Client
	ledgerStore   *ledgerStore
	warningStore  *warningStore
	catalogStore  *catalogStore
	settingsStore *settingsStore
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Host may already carry the port (e.g. from miniredis.Addr())
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	store := &Store{
		client:        client,
		ledgerStore:   &ledgerStore{client: client},
		warningStore:  &warningStore{client: client},
		catalogStore:  &catalogStore{client: client},
		settingsStore: &settingsStore{client: client},
	}

	return store, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Ledger returns the LedgerStore implementation
func (s *Store) Ledger() storage.LedgerStore {
	return s.ledgerStore
}

// Warnings returns the WarningStore implementation
func (s *Store) Warnings() storage.WarningStore {
	return s.warningStore
}

// Catalog returns the CatalogStore implementation
func (s *Store) Catalog() storage.CatalogStore {
	return s.catalogStore
}

// Settings returns the SettingsStore implementation
func (s *Store) Settings() storage.SettingsStore {
	return s.settingsStore
}
