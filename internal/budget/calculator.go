package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
	"github.com/rs/zerolog"
)

// State is the viewing phase derived from the remaining budget.
type State string

const (
	// StateNormal: more than the wind-down threshold remains.
	StateNormal State = "normal"
	// StateWindDown: at most windDownMinutes remain; only items short enough
	// to finish in the remaining time should be offered.
	StateWindDown State = "winddown"
	// StateGrace: the budget is exhausted but the daily bonus item has not
	// been played yet.
	StateGrace State = "grace"
	// StateLocked: exhausted and the bonus is spent.
	StateLocked State = "locked"
)

// windDownMinutes is the remaining-minutes boundary below which the
// presentation switches to short items.
const windDownMinutes = 10

// deferralSeconds is how far past exhaustion an already-started item may run.
const deferralSeconds = 300

// DailyState is the full projection of today's ledger against the configured
// limit. It carries everything the kiosk needs to render the budget banner.
type DailyState struct {
	Day              string    `json:"day"`
	LimitMinutes     int       `json:"limit_minutes"`
	MinutesWatched   int       `json:"minutes_watched"`
	MinutesRemaining int       `json:"minutes_remaining"`
	State            State     `json:"state"`
	ResetAt          time.Time `json:"reset_at"`
}

// Calculator derives the daily state from the ledger. It holds no state of
// its own: every call re-reads settings and re-sums today's events, so the
// result survives restarts and admin ledger corrections without any
// invalidation hook.
type Calculator struct {
	ledger   storage.LedgerStore
	settings storage.SettingsStore
	defaults storage.Settings
	clock    Clock
	logger   zerolog.Logger
}

// NewCalculator creates a Calculator. The defaults are used until the admin
// surface saves settings of its own.
func NewCalculator(ledger storage.LedgerStore, settings storage.SettingsStore, defaults storage.Settings, clock Clock, logger zerolog.Logger) *Calculator {
	return &Calculator{
		ledger:   ledger,
		settings: settings,
		defaults: defaults,
		clock:    clock,
		logger:   logger.With().Str("component", "budget").Logger(),
	}
}

// EffectiveSettings returns the stored settings, falling back to the
// configured defaults when none were saved yet.
func (c *Calculator) EffectiveSettings(ctx context.Context) (storage.Settings, error) {
	s, err := c.settings.Get(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return c.defaults, nil
	}
	if err != nil {
		return storage.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return *s, nil
}

// ComputeState projects today's ledger into a DailyState.
func (c *Calculator) ComputeState(ctx context.Context) (DailyState, error) {
	now := c.clock.Now().UTC()
	day := storage.DayKey(now)

	settings, err := c.EffectiveSettings(ctx)
	if err != nil {
		return DailyState{}, err
	}

	events, err := c.ledger.ListWatchEventsForDay(ctx, day)
	if err != nil {
		return DailyState{}, fmt.Errorf("list watch events: %w", err)
	}

	var totalSeconds int64
	for _, ev := range events {
		if ev.Countable() {
			totalSeconds += ev.SecondsWatched
		}
	}

	// Sum seconds first, truncate once. Three 50-second clips cost 2 minutes,
	// not 0.
	watched := int(totalSeconds / 60)
	remaining := settings.DailyLimitMinutes - watched
	if remaining < 0 {
		remaining = 0
	}

	state := StateNormal
	switch {
	case remaining == 0:
		played, err := c.ledger.GracePlayedOn(ctx, day)
		if err != nil {
			return DailyState{}, fmt.Errorf("check grace day: %w", err)
		}
		if played {
			state = StateLocked
		} else {
			state = StateGrace
		}
	case remaining <= windDownMinutes:
		state = StateWindDown
	}

	c.logger.Debug().
		Str("day", day).
		Int("minutes_watched", watched).
		Int("minutes_remaining", remaining).
		Str("state", string(state)).
		Msg("computed daily state")

	return DailyState{
		Day:              day,
		LimitMinutes:     settings.DailyLimitMinutes,
		MinutesWatched:   watched,
		MinutesRemaining: remaining,
		State:            state,
		ResetAt:          nextMidnight(now),
	}, nil
}

// AllowFinish reports whether an item started now may run to completion:
// items are never interrupted mid-playback, but an item may only start if it
// overshoots the remaining budget by at most five minutes.
func AllowFinish(durationSeconds, remainingSeconds int64) bool {
	return durationSeconds <= remainingSeconds+deferralSeconds
}

func nextMidnight(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
}
