package warning

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
	"github.com/rs/zerolog"
)

func TestCrossings(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		prev  int
		curr  int
		want  []storage.WarningTier
	}{
		{"no movement", 30, 15, 15, nil},
		{"above all tiers", 30, 20, 12, nil},
		{"crosses ten", 30, 12, 10, []storage.WarningTier{storage.WarningTier10}},
		{"crosses ten and five", 30, 12, 4, []storage.WarningTier{storage.WarningTier10, storage.WarningTier5}},
		{"crosses all three", 30, 12, 0, []storage.WarningTier{storage.WarningTier10, storage.WarningTier5, storage.WarningTier2}},
		{"already at boundary does not refire", 30, 10, 8, nil},
		{"crosses five only", 30, 7, 5, []storage.WarningTier{storage.WarningTier5}},
		{"crosses two only", 30, 3, 1, []storage.WarningTier{storage.WarningTier2}},
		// An 8-minute limit day starts with remaining == 8: the 10-minute
		// tier can never fire, only 5 and 2 can.
		{"limit 8 skips tier 10 at start", 8, 8, 7, nil},
		{"limit 8 crosses five", 8, 6, 5, []storage.WarningTier{storage.WarningTier5}},
		{"limit 8 crosses five and two", 8, 8, 0, []storage.WarningTier{storage.WarningTier5, storage.WarningTier2}},
		// A 5-minute limit leaves only the 2-minute tier.
		{"limit 5 only tier 2", 5, 5, 0, []storage.WarningTier{storage.WarningTier2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Crossings(tt.limit, tt.prev, tt.curr)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Crossings(%d, %d, %d) = %v, want %v", tt.limit, tt.prev, tt.curr, got, tt.want)
			}
		})
	}
}

func TestCrossingsFireOncePerBoundary(t *testing.T) {
	// Walk remaining time down minute by minute; each tier must appear
	// exactly once over the day.
	counts := map[storage.WarningTier]int{}
	for remaining := 30; remaining > 0; remaining-- {
		for _, tier := range Crossings(30, remaining, remaining-1) {
			counts[tier]++
		}
	}
	for _, tier := range []storage.WarningTier{storage.WarningTier10, storage.WarningTier5, storage.WarningTier2} {
		if counts[tier] != 1 {
			t.Errorf("tier %d fired %d times, want 1", tier, counts[tier])
		}
	}
}

type warningStoreFunc func(ctx context.Context, ev storage.WarningEvent) error

func (f warningStoreFunc) AppendWarningEvent(ctx context.Context, ev storage.WarningEvent) error {
	return f(ctx, ev)
}

func (f warningStoreFunc) ListWarningEventsForDay(context.Context, string) ([]storage.WarningEvent, error) {
	return nil, nil
}

func TestRecorderRejectsInvalidTier(t *testing.T) {
	rec := NewRecorder(warningStoreFunc(func(context.Context, storage.WarningEvent) error {
		t.Fatal("store must not be reached for an invalid tier")
		return nil
	}), zerolog.Nop())

	if err := rec.Record(context.Background(), 7, time.Now()); err == nil {
		t.Error("expected error for tier 7")
	}
}

func TestRecorderSwallowsStorageFailure(t *testing.T) {
	rec := NewRecorder(warningStoreFunc(func(context.Context, storage.WarningEvent) error {
		return errors.New("disk on fire")
	}), zerolog.Nop())

	if err := rec.Record(context.Background(), 5, time.Now()); err != nil {
		t.Errorf("storage failure must not surface: %v", err)
	}
}

func TestRecorderWrites(t *testing.T) {
	var got storage.WarningEvent
	rec := NewRecorder(warningStoreFunc(func(_ context.Context, ev storage.WarningEvent) error {
		got = ev
		return nil
	}), zerolog.Nop())

	at := time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC)
	if err := rec.Record(context.Background(), 10, at); err != nil {
		t.Fatalf("record: %v", err)
	}
	if got.Tier != storage.WarningTier10 || !got.ShownAt.Equal(at) {
		t.Errorf("stored event = %+v, want tier 10 at %v", got, at)
	}
}
