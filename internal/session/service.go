// Package session orchestrates the viewing-session flow: budget status,
// ledger writes, warning audit, grid selection, and the daily grace play.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/goodtune/tubetime/internal/budget"
	"github.com/goodtune/tubetime/internal/metrics"
	"github.com/goodtune/tubetime/internal/selection"
	"github.com/goodtune/tubetime/internal/storage"
	"github.com/goodtune/tubetime/internal/warning"
	"github.com/rs/zerolog"
)

var (
	// ErrGraceConsumed is returned when today's bonus play was already used.
	ErrGraceConsumed = errors.New("session: grace already consumed today")
	// ErrValidation wraps all bad-input errors so the API layer can map them
	// to 400 without inspecting messages.
	ErrValidation = errors.New("session: invalid request")
)

// WatchRequest is a playback report from the kiosk.
type WatchRequest struct {
	ItemID         string
	ChannelTitle   string
	SecondsWatched int64
	Completed      bool
	ManualPlay     bool
	GracePlay      bool
}

// WatchResult is the outcome of recording a watch: the recomputed budget and
// the warning tiers whose boundaries this watch crossed.
type WatchResult struct {
	State       budget.DailyState
	WarningsDue []storage.WarningTier
}

// SelectionResult is a grid of items together with the state that shaped it.
type SelectionResult struct {
	State budget.DailyState
	Items []storage.VideoItem
}

// Service is the request-scoped orchestrator. It holds no session state:
// every operation is a fresh projection of the ledger, which keeps the
// process restart-safe and immune to cache drift.
type Service struct {
	store    storage.Store
	calc     *budget.Calculator
	recorder *warning.Recorder
	selector *selection.Selector
	clock    budget.Clock
	logger   zerolog.Logger
}

// New creates a session Service.
func New(store storage.Store, calc *budget.Calculator, recorder *warning.Recorder, selector *selection.Selector, clock budget.Clock, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		calc:     calc,
		recorder: recorder,
		selector: selector,
		clock:    clock,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// Status returns today's budget projection.
func (s *Service) Status(ctx context.Context) (budget.DailyState, error) {
	return s.calc.ComputeState(ctx)
}

// RecordWatch validates and appends a watch event with a server-assigned UTC
// timestamp, then returns the freshly recomputed state. Ledger writes are
// safety-critical: storage failures propagate to the caller so the kiosk can
// retry instead of silently losing watched minutes.
func (s *Service) RecordWatch(ctx context.Context, req WatchRequest) (WatchResult, error) {
	if err := validateWatch(req); err != nil {
		return WatchResult{}, err
	}

	now := s.clock.Now().UTC()
	day := storage.DayKey(now)

	if req.GracePlay {
		played, err := s.store.Ledger().GracePlayedOn(ctx, day)
		if err != nil {
			return WatchResult{}, fmt.Errorf("check grace day: %w", err)
		}
		if played {
			return WatchResult{}, ErrGraceConsumed
		}
	}

	prev, err := s.calc.ComputeState(ctx)
	if err != nil {
		return WatchResult{}, err
	}

	ev := storage.WatchEvent{
		ID:             uuid.NewString(),
		ItemID:         req.ItemID,
		ChannelTitle:   req.ChannelTitle,
		WatchedAt:      now,
		SecondsWatched: req.SecondsWatched,
		Completed:      req.Completed,
		ManualPlay:     req.ManualPlay,
		GracePlay:      req.GracePlay,
	}

	if err := s.store.Ledger().AppendWatchEvent(ctx, ev); err != nil {
		metrics.WatchWriteFailures.Inc()
		return WatchResult{}, fmt.Errorf("append watch event: %w", err)
	}

	kind := watchKind(ev)
	metrics.WatchEventsTotal.WithLabelValues(kind).Inc()
	metrics.WatchSecondsTotal.WithLabelValues(kind).Add(float64(ev.SecondsWatched))

	curr, err := s.calc.ComputeState(ctx)
	if err != nil {
		return WatchResult{}, err
	}

	due := warning.Crossings(curr.LimitMinutes, prev.MinutesRemaining, curr.MinutesRemaining)

	s.logger.Info().
		Str("item_id", ev.ItemID).
		Int64("seconds", ev.SecondsWatched).
		Str("kind", kind).
		Int("minutes_remaining", curr.MinutesRemaining).
		Msg("watch recorded")

	return WatchResult{State: curr, WarningsDue: due}, nil
}

// RecordWarning validates the tier and appends a warning display to the
// audit trail. Storage failures are swallowed inside the recorder.
func (s *Service) RecordWarning(ctx context.Context, tier int, shownAt time.Time) error {
	if shownAt.IsZero() {
		shownAt = s.clock.Now().UTC()
	}
	if err := s.recorder.Record(ctx, tier, shownAt); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	metrics.WarningsShown.WithLabelValues(strconv.Itoa(tier)).Inc()
	return nil
}

// Select builds the grid for the current state: the full catalog in normal
// play, duration-filtered in wind-down, short bonus items in grace, and
// nothing when locked. An explicit maxDurationSeconds narrows any state
// further.
func (s *Service) Select(ctx context.Context, count int, maxDurationSeconds int64) (SelectionResult, error) {
	state, err := s.calc.ComputeState(ctx)
	if err != nil {
		return SelectionResult{}, err
	}

	settings, err := s.calc.EffectiveSettings(ctx)
	if err != nil {
		return SelectionResult{}, err
	}
	if count <= 0 {
		count = settings.GridSize
	}

	if state.State == budget.StateLocked {
		metrics.SelectionsTotal.WithLabelValues(string(state.State)).Inc()
		return SelectionResult{State: state, Items: []storage.VideoItem{}}, nil
	}

	candidates, err := s.store.Catalog().ListAvailable(ctx)
	if err != nil {
		return SelectionResult{}, fmt.Errorf("list catalog: %w", err)
	}

	switch state.State {
	case budget.StateWindDown:
		candidates = selection.WindDown(candidates, state.MinutesRemaining)
	case budget.StateGrace:
		candidates = selection.GraceCandidates(candidates, settings.GridSize)
	}
	candidates = selection.MaxDuration(candidates, maxDurationSeconds)

	stats, err := s.store.Ledger().ItemStats(ctx)
	if err != nil {
		return SelectionResult{}, fmt.Errorf("load item stats: %w", err)
	}

	items := s.selector.Select(candidates, stats, s.clock.Now().UTC(), count)
	metrics.SelectionsTotal.WithLabelValues(string(state.State)).Inc()

	return SelectionResult{State: state, Items: items}, nil
}

// OfferGrace returns the bonus-play candidates for today, or ErrGraceConsumed
// when the single daily grace item was already played.
func (s *Service) OfferGrace(ctx context.Context) ([]storage.VideoItem, error) {
	now := s.clock.Now().UTC()

	played, err := s.store.Ledger().GracePlayedOn(ctx, storage.DayKey(now))
	if err != nil {
		return nil, fmt.Errorf("check grace day: %w", err)
	}
	if played {
		metrics.GraceOffers.WithLabelValues("rejected").Inc()
		return nil, ErrGraceConsumed
	}

	settings, err := s.calc.EffectiveSettings(ctx)
	if err != nil {
		return nil, err
	}

	available, err := s.store.Catalog().ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	candidates := selection.GraceCandidates(available, settings.GridSize)

	stats, err := s.store.Ledger().ItemStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load item stats: %w", err)
	}

	items := s.selector.Select(candidates, stats, now, settings.GridSize)
	metrics.GraceOffers.WithLabelValues("offered").Inc()
	return items, nil
}

func validateWatch(req WatchRequest) error {
	if req.ItemID == "" {
		return fmt.Errorf("%w: item_id is required", ErrValidation)
	}
	if req.SecondsWatched <= 0 {
		return fmt.Errorf("%w: seconds_watched must be positive", ErrValidation)
	}
	if req.ManualPlay && req.GracePlay {
		return fmt.Errorf("%w: a watch cannot be both manual and grace", ErrValidation)
	}
	return nil
}

func watchKind(ev storage.WatchEvent) string {
	switch {
	case ev.GracePlay:
		return "grace"
	case ev.ManualPlay:
		return "manual"
	default:
		return "counted"
	}
}
