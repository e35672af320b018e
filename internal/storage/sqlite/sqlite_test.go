package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tubetime.sqlite")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tubetime.sqlite")
	ctx := context.Background()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer store.Close()
}

func TestLedgerAppendAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ledger := store.Ledger()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	events := []storage.WatchEvent{
		{ID: "ev1", ItemID: "vid-a", ChannelTitle: "Choo Choo TV", WatchedAt: base, SecondsWatched: 300, Completed: true},
		{ID: "ev2", ItemID: "vid-b", WatchedAt: base.Add(10 * time.Minute), SecondsWatched: 120, ManualPlay: true},
		{ID: "ev3", ItemID: "vid-a", WatchedAt: base.Add(25 * time.Hour), SecondsWatched: 60},
	}
	for _, ev := range events {
		if err := ledger.AppendWatchEvent(ctx, ev); err != nil {
			t.Fatalf("append %s: %v", ev.ID, err)
		}
	}

	got, err := ledger.ListWatchEventsForDay(ctx, storage.DayKey(base))
	if err != nil {
		t.Fatalf("list for day: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].ID != "ev1" || got[1].ID != "ev2" {
		t.Errorf("expected append order ev1,ev2, got %s,%s", got[0].ID, got[1].ID)
	}
	if !got[0].Completed || got[0].ChannelTitle != "Choo Choo TV" {
		t.Errorf("ev1 fields not preserved: %+v", got[0])
	}
	if !got[1].ManualPlay {
		t.Errorf("ev2 manual_play not preserved: %+v", got[1])
	}
	if !got[0].WatchedAt.Equal(base) {
		t.Errorf("watched_at = %v, want %v", got[0].WatchedAt, base)
	}
}

func TestLedgerRejectsDuplicateAppend(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ledger := store.Ledger()

	ev := storage.WatchEvent{ID: "ev1", ItemID: "vid-a", WatchedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), SecondsWatched: 60}
	if err := ledger.AppendWatchEvent(ctx, ev); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := ledger.AppendWatchEvent(ctx, ev); err == nil {
		t.Fatal("expected duplicate append to fail")
	}
}

func TestLedgerGracePlayedOn(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ledger := store.Ledger()

	at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	day := storage.DayKey(at)

	played, err := ledger.GracePlayedOn(ctx, day)
	if err != nil {
		t.Fatalf("grace check: %v", err)
	}
	if played {
		t.Fatal("grace should not be marked before any play")
	}

	ev := storage.WatchEvent{ID: "ev-grace", ItemID: "vid-a", WatchedAt: at, SecondsWatched: 240, GracePlay: true}
	if err := ledger.AppendWatchEvent(ctx, ev); err != nil {
		t.Fatalf("append grace event: %v", err)
	}

	played, err = ledger.GracePlayedOn(ctx, day)
	if err != nil {
		t.Fatalf("grace check: %v", err)
	}
	if !played {
		t.Fatal("grace should be marked after a grace play")
	}
}

func TestLedgerItemStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	ledger := store.Ledger()

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	events := []storage.WatchEvent{
		{ID: "ev1", ItemID: "vid-a", WatchedAt: base, SecondsWatched: 300, Completed: true},
		{ID: "ev2", ItemID: "vid-a", WatchedAt: base.Add(48 * time.Hour), SecondsWatched: 100},
		{ID: "ev3", ItemID: "vid-b", WatchedAt: base.Add(time.Hour), SecondsWatched: 200, Completed: true},
	}
	for _, ev := range events {
		if err := ledger.AppendWatchEvent(ctx, ev); err != nil {
			t.Fatalf("append %s: %v", ev.ID, err)
		}
	}

	stats, err := ledger.ItemStats(ctx)
	if err != nil {
		t.Fatalf("item stats: %v", err)
	}

	a := stats["vid-a"]
	if a.Plays != 2 || a.Completions != 1 {
		t.Errorf("vid-a stats = %+v, want 2 plays, 1 completion", a)
	}
	if !a.LastWatchedAt.Equal(base.Add(48 * time.Hour)) {
		t.Errorf("vid-a last watched = %v, want %v", a.LastWatchedAt, base.Add(48*time.Hour))
	}
}

func TestWarningAppendAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	warnings := store.Warnings()

	at := time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC)
	for i, tier := range []storage.WarningTier{storage.WarningTier10, storage.WarningTier5, storage.WarningTier2} {
		ev := storage.WarningEvent{Tier: tier, ShownAt: at.Add(time.Duration(i) * 4 * time.Minute)}
		if err := warnings.AppendWarningEvent(ctx, ev); err != nil {
			t.Fatalf("append warning: %v", err)
		}
	}

	got, err := warnings.ListWarningEventsForDay(ctx, storage.DayKey(at))
	if err != nil {
		t.Fatalf("list warnings: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 warnings, got %d", len(got))
	}
	want := []storage.WarningTier{storage.WarningTier10, storage.WarningTier5, storage.WarningTier2}
	for i, ev := range got {
		if ev.Tier != want[i] {
			t.Errorf("warning %d tier = %v, want %v", i, ev.Tier, want[i])
		}
	}
}

func TestCatalogLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	catalog := store.Catalog()

	items := []storage.VideoItem{
		{ID: "vid-a", Title: "Trains", ChannelTitle: "Choo Choo TV", DurationSeconds: 240, Available: true},
		{ID: "vid-b", Title: "Dinosaurs", ChannelTitle: "Dino Facts", DurationSeconds: 600, Available: true},
		{ID: "vid-c", Title: "Gone", ChannelTitle: "Dino Facts", DurationSeconds: 300, Available: false},
	}
	for _, item := range items {
		if err := catalog.UpsertItem(ctx, item); err != nil {
			t.Fatalf("upsert %s: %v", item.ID, err)
		}
	}

	got, err := catalog.GetItem(ctx, "vid-a")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.Title != "Trains" || got.DurationSeconds != 240 {
		t.Errorf("unexpected item: %+v", got)
	}

	if _, err := catalog.GetItem(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := catalog.SetBanned(ctx, "vid-b", true); err != nil {
		t.Fatalf("ban item: %v", err)
	}
	if err := catalog.SetBanned(ctx, "missing", true); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("ban missing: expected ErrNotFound, got %v", err)
	}

	available, err := catalog.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(available) != 1 || available[0].ID != "vid-a" {
		t.Fatalf("expected only vid-a available, got %v", available)
	}

	all, err := catalog.ListItems(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 items total, got %d", len(all))
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	settings := store.Settings()

	if _, err := settings.Get(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first put, got %v", err)
	}

	want := storage.Settings{DailyLimitMinutes: 30, GridSize: 12}
	if err := settings.Put(ctx, want); err != nil {
		t.Fatalf("put settings: %v", err)
	}

	want.DailyLimitMinutes = 45
	if err := settings.Put(ctx, want); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	got, err := settings.Get(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if *got != want {
		t.Errorf("settings = %+v, want %+v", *got, want)
	}
}
