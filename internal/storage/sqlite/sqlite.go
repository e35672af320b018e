package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goodtune/tubetime/internal/storage"
)

// Store implements the storage.Store interface using SQLite. A single
// connection with WAL keeps writers serialized without busy-loop errors.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) a SQLite-backed store.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := storage.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
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

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
