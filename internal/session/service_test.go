package session

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/goodtune/tubetime/internal/budget"
	"github.com/goodtune/tubetime/internal/selection"
	"github.com/goodtune/tubetime/internal/storage"
	"github.com/goodtune/tubetime/internal/storage/bolt"
	"github.com/goodtune/tubetime/internal/warning"
	"github.com/rs/zerolog"
)

var testDefaults = storage.Settings{DailyLimitMinutes: 30, GridSize: 4}

func newTestService(t *testing.T, clock budget.Clock) (*Service, *bolt.Store) {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "tubetime.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	calc := budget.NewCalculator(store.Ledger(), store.Settings(), testDefaults, clock, logger)
	recorder := warning.NewRecorder(store.Warnings(), logger)
	selector := selection.NewSelector(rand.New(rand.NewSource(1)))

	return New(store, calc, recorder, selector, clock, logger), store
}

func seedCatalog(t *testing.T, store *bolt.Store, items ...storage.VideoItem) {
	t.Helper()
	for _, item := range items {
		if err := store.Catalog().UpsertItem(context.Background(), item); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}
}

func video(id string, duration int64) storage.VideoItem {
	return storage.VideoItem{ID: id, Title: id, DurationSeconds: duration, Available: true}
}

func TestRecordWatchUpdatesState(t *testing.T) {
	clock := &budget.TestClock{CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, clock)
	ctx := context.Background()

	res, err := svc.RecordWatch(ctx, WatchRequest{ItemID: "vid-a", SecondsWatched: 600})
	if err != nil {
		t.Fatalf("record watch: %v", err)
	}
	if res.State.MinutesWatched != 10 || res.State.MinutesRemaining != 20 {
		t.Errorf("state = %+v, want 10 watched / 20 remaining", res.State)
	}
	if len(res.WarningsDue) != 0 {
		t.Errorf("no warnings expected at 20 remaining, got %v", res.WarningsDue)
	}
}

func TestRecordWatchReportsWarningCrossings(t *testing.T) {
	clock := &budget.TestClock{CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, clock)
	ctx := context.Background()

	// 30-minute budget, watch 21 minutes: remaining drops 30 -> 9, crossing
	// the 10-minute tier.
	res, err := svc.RecordWatch(ctx, WatchRequest{ItemID: "vid-a", SecondsWatched: 21 * 60})
	if err != nil {
		t.Fatalf("record watch: %v", err)
	}
	if len(res.WarningsDue) != 1 || res.WarningsDue[0] != storage.WarningTier10 {
		t.Errorf("warnings due = %v, want [10]", res.WarningsDue)
	}

	// Next watch drops 9 -> 1, crossing 5 and 2 at once.
	res, err = svc.RecordWatch(ctx, WatchRequest{ItemID: "vid-a", SecondsWatched: 8 * 60})
	if err != nil {
		t.Fatalf("record watch: %v", err)
	}
	want := []storage.WarningTier{storage.WarningTier5, storage.WarningTier2}
	if len(res.WarningsDue) != 2 || res.WarningsDue[0] != want[0] || res.WarningsDue[1] != want[1] {
		t.Errorf("warnings due = %v, want %v", res.WarningsDue, want)
	}
}

func TestRecordWatchValidation(t *testing.T) {
	clock := &budget.TestClock{CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc, store := newTestService(t, clock)
	ctx := context.Background()

	tests := []struct {
		name string
		req  WatchRequest
	}{
		{"empty item id", WatchRequest{SecondsWatched: 60}},
		{"zero seconds", WatchRequest{ItemID: "vid-a"}},
		{"negative seconds", WatchRequest{ItemID: "vid-a", SecondsWatched: -5}},
		{"manual and grace", WatchRequest{ItemID: "vid-a", SecondsWatched: 60, ManualPlay: true, GracePlay: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.RecordWatch(ctx, tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	// Validation failures must never write.
	events, err := store.Ledger().ListWatchEventsForDay(ctx, storage.DayKey(clock.Now()))
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected empty ledger after rejected requests, got %d events", len(events))
	}
}

func TestRecordWatchGraceExclusivity(t *testing.T) {
	clock := &budget.TestClock{CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(t, clock)
	ctx := context.Background()

	if _, err := svc.RecordWatch(ctx, WatchRequest{ItemID: "vid-a", SecondsWatched: 120, GracePlay: true}); err != nil {
		t.Fatalf("first grace play: %v", err)
	}
	if _, err := svc.RecordWatch(ctx, WatchRequest{ItemID: "vid-b", SecondsWatched: 120, GracePlay: true}); !errors.Is(err, ErrGraceConsumed) {
		t.Errorf("second grace play: expected ErrGraceConsumed, got %v", err)
	}

	// Next day the grace play is available again.
	clock.CurrentTime = clock.CurrentTime.Add(24 * time.Hour)
	if _, err := svc.RecordWatch(ctx, WatchRequest{ItemID: "vid-c", SecondsWatched: 120, GracePlay: true}); err != nil {
		t.Errorf("next-day grace play: %v", err)
	}
}

func TestSelectNormalState(t *testing.T) {
	clock := &budget.TestClock{CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc, store := newTestService(t, clock)
	ctx := context.Background()

	seedCatalog(t, store, video("a", 120), video("b", 400), video("c", 900))

	res, err := svc.Select(ctx, 0, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if res.State.State != budget.StateNormal {
		t.Errorf("state = %s, want normal", res.State.State)
	}
	if len(res.Items) != 3 {
		t.Errorf("expected all 3 items (grid size 4), got %d", len(res.Items))
	}
}

func TestSelectWindDownFiltersLongItems(t *testing.T) {
	clock := &budget.TestClock{CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc, store := newTestService(t, clock)
	ctx := context.Background()

	seedCatalog(t, store, video("short", 120), video("long", 1200))

	// 25 minutes watched leaves 5: wind-down.
	if _, err := svc.RecordWatch(ctx, WatchRequest{ItemID: "warmup", SecondsWatched: 25 * 60}); err != nil {
		t.Fatalf("record watch: %v", err)
	}

	res, err := svc.Select(ctx, 0, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if res.State.State != budget.StateWindDown {
		t.Fatalf("state = %s, want winddown", res.State.State)
	}
	if len(res.Items) != 1 || res.Items[0].ID != "short" {
		t.Errorf("expected only the short item, got %v", res.Items)
	}
}

func TestSelectLockedReturnsEmpty(t *testing.T) {
	clock := &budget.TestClock{CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc, store := newTestService(t, clock)
	ctx := context.Background()

	seedCatalog(t, store, video("a", 120))

	if _, err := svc.RecordWatch(ctx, WatchRequest{ItemID: "a", SecondsWatched: 30 * 60}); err != nil {
		t.Fatalf("exhaust budget: %v", err)
	}
	if _, err := svc.RecordWatch(ctx, WatchRequest{ItemID: "a", SecondsWatched: 120, GracePlay: true}); err != nil {
		t.Fatalf("grace play: %v", err)
	}

	res, err := svc.Select(ctx, 0, 0)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if res.State.State != budget.StateLocked {
		t.Fatalf("state = %s, want locked", res.State.State)
	}
	if len(res.Items) != 0 {
		t.Errorf("locked state must select nothing, got %d items", len(res.Items))
	}
}

func TestOfferGrace(t *testing.T) {
	clock := &budget.TestClock{CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc, store := newTestService(t, clock)
	ctx := context.Background()

	seedCatalog(t, store, video("short-a", 180), video("short-b", 240), video("long", 900))

	items, err := svc.OfferGrace(ctx)
	if err != nil {
		t.Fatalf("offer grace: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 short candidates, got %d", len(items))
	}
	for _, it := range items {
		if it.DurationSeconds > 300 {
			t.Errorf("grace candidate %s (%ds) exceeds the cap", it.ID, it.DurationSeconds)
		}
	}

	if _, err := svc.RecordWatch(ctx, WatchRequest{ItemID: "short-a", SecondsWatched: 180, GracePlay: true}); err != nil {
		t.Fatalf("grace play: %v", err)
	}

	if _, err := svc.OfferGrace(ctx); !errors.Is(err, ErrGraceConsumed) {
		t.Errorf("expected ErrGraceConsumed after the grace play, got %v", err)
	}
}

func TestRecordWarningValidatesTier(t *testing.T) {
	clock := &budget.TestClock{CurrentTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	svc, store := newTestService(t, clock)
	ctx := context.Background()

	if err := svc.RecordWarning(ctx, 7, clock.Now()); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for tier 7, got %v", err)
	}

	if err := svc.RecordWarning(ctx, 5, clock.Now()); err != nil {
		t.Fatalf("record warning: %v", err)
	}

	events, err := store.Warnings().ListWarningEventsForDay(ctx, storage.DayKey(clock.Now()))
	if err != nil {
		t.Fatalf("list warnings: %v", err)
	}
	if len(events) != 1 || events[0].Tier != storage.WarningTier5 {
		t.Errorf("expected one tier-5 warning, got %v", events)
	}
}
