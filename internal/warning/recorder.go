package warning

import (
	"context"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
	"github.com/rs/zerolog"
)

// Recorder appends warning displays to the audit trail. Writes are
// best-effort: a storage outage must never keep a warning off the screen or
// block playback, so failures are logged and swallowed. Watch-event writes do
// not get this treatment.
type Recorder struct {
	store  storage.WarningStore
	logger zerolog.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(store storage.WarningStore, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:  store,
		logger: logger.With().Str("component", "warning").Logger(),
	}
}

// Record validates the tier and appends the display event. Only an invalid
// tier is an error; storage failures are absorbed here.
func (r *Recorder) Record(ctx context.Context, tier int, shownAt time.Time) error {
	t, err := storage.ParseWarningTier(tier)
	if err != nil {
		return err
	}

	ev := storage.WarningEvent{Tier: t, ShownAt: shownAt.UTC()}
	if err := r.store.AppendWarningEvent(ctx, ev); err != nil {
		r.logger.Error().Err(err).Int("tier", tier).Msg("failed to record warning display")
	}
	return nil
}
