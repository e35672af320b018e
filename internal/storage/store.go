package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface. Every backend (bolt, sqlite,
// redis) provides all four stores; the server selects one backend from
// configuration at startup.
type Store interface {
	Close() error
	Ledger() LedgerStore
	Warnings() WarningStore
	Catalog() CatalogStore
	Settings() SettingsStore
}

// LedgerStore is the append-only watch-event ledger. It is the single source
// of truth for time accounting: rows are never updated or deleted by the
// engine, and today's budget is always re-derived from it.
type LedgerStore interface {
	// AppendWatchEvent inserts a new event. Implementations must never
	// overwrite an existing event.
	AppendWatchEvent(ctx context.Context, ev WatchEvent) error
	// ListWatchEventsForDay returns all events whose watched_at falls on the
	// given UTC day key (YYYY-MM-DD), in append order.
	ListWatchEventsForDay(ctx context.Context, day string) ([]WatchEvent, error)
	// GracePlayedOn reports whether any grace_play event exists for the day.
	GracePlayedOn(ctx context.Context, day string) (bool, error)
	// ItemStats aggregates the full history per item for selection weighting.
	ItemStats(ctx context.Context) (map[string]ItemStats, error)
}

// WarningStore records warning displays. Write-only audit trail; the budget
// calculator never reads it back.
type WarningStore interface {
	AppendWarningEvent(ctx context.Context, ev WarningEvent) error
	ListWarningEventsForDay(ctx context.Context, day string) ([]WarningEvent, error)
}

// CatalogStore holds the selectable items. Item ingestion is owned by an
// external job; the engine only reads availability-filtered candidates and
// flips the ban flag on behalf of the admin surface.
type CatalogStore interface {
	UpsertItem(ctx context.Context, item VideoItem) error
	GetItem(ctx context.Context, id string) (*VideoItem, error)
	ListItems(ctx context.Context) ([]VideoItem, error)
	// ListAvailable excludes banned and unavailable items. This is the hard
	// filter applied before any selection weighting.
	ListAvailable(ctx context.Context) ([]VideoItem, error)
	SetBanned(ctx context.Context, id string, banned bool) error
}

// SettingsStore holds the parent-configured settings. Callers must re-read on
// every computation so admin changes take effect immediately; implementations
// must not cache.
type SettingsStore interface {
	// Get returns the stored settings, or ErrNotFound when none were saved
	// yet (callers fall back to configured defaults).
	Get(ctx context.Context) (*Settings, error)
	Put(ctx context.Context, s Settings) error
}
