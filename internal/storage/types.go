package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// WatchEvent is one immutable row of the viewing ledger. Corrections are new
// rows (or external administrative deletion), never updates.
type WatchEvent struct {
	ID             string    `json:"id"`
	ItemID         string    `json:"item_id"`
	ChannelTitle   string    `json:"channel_title"` // denormalized, survives catalog deletion
	WatchedAt      time.Time `json:"watched_at"`    // absolute UTC instant
	SecondsWatched int64     `json:"seconds_watched"`
	Completed      bool      `json:"completed"`
	ManualPlay     bool      `json:"manual_play"` // parent-initiated, bypasses the budget
	GracePlay      bool      `json:"grace_play"`  // daily bonus item, bypasses the budget
}

// Countable reports whether the event consumes budget minutes.
func (ev WatchEvent) Countable() bool {
	return !ev.ManualPlay && !ev.GracePlay
}

// WarningTier identifies one of the three progressive warnings, named by its
// minutes-remaining boundary.
type WarningTier int

const (
	WarningTier10 WarningTier = 10
	WarningTier5  WarningTier = 5
	WarningTier2  WarningTier = 2
)

// ParseWarningTier validates an integer against the fixed enumeration.
func ParseWarningTier(v int) (WarningTier, error) {
	switch WarningTier(v) {
	case WarningTier10, WarningTier5, WarningTier2:
		return WarningTier(v), nil
	default:
		return 0, fmt.Errorf("invalid warning tier: %d (must be 10, 5, or 2)", v)
	}
}

// UnmarshalJSON implements json.Unmarshaler so out-of-enum tiers are rejected
// at the decode boundary.
func (t *WarningTier) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	tier, err := ParseWarningTier(v)
	if err != nil {
		return err
	}
	*t = tier
	return nil
}

// WarningEvent records one warning display. Write-only audit trail.
type WarningEvent struct {
	Tier    WarningTier `json:"tier"`
	ShownAt time.Time   `json:"shown_at"`
}

// Settings are the parent-configured knobs, owned by the admin surface and
// read-only to the engine.
type Settings struct {
	DailyLimitMinutes int `json:"daily_limit_minutes"`
	GridSize          int `json:"grid_size"`
}

// VideoItem is one selectable catalog entry, fed by the external ingestion
// job.
type VideoItem struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ChannelTitle    string    `json:"channel_title"`
	DurationSeconds int64     `json:"duration_seconds"`
	Banned          bool      `json:"banned"`
	Available       bool      `json:"available"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ItemStats aggregates an item's full watch history for selection weighting.
type ItemStats struct {
	ItemID        string    `json:"item_id"`
	Plays         int64     `json:"plays"`
	Completions   int64     `json:"completions"`
	LastWatchedAt time.Time `json:"last_watched_at"`
}

// DayKey formats an instant as the UTC day bucket used by the ledger.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
