package selection

import (
	"sort"

	"github.com/goodtune/tubetime/internal/storage"
)

// graceMaxSeconds caps the daily bonus item at five minutes.
const graceMaxSeconds = 300

// GraceCandidates returns the items eligible for the daily bonus play: those
// no longer than five minutes. When the catalog has no short items at all,
// the gridSize shortest items are offered instead so the bonus is never an
// empty screen.
func GraceCandidates(items []storage.VideoItem, gridSize int) []storage.VideoItem {
	short := make([]storage.VideoItem, 0, len(items))
	for _, item := range items {
		if item.DurationSeconds <= graceMaxSeconds {
			short = append(short, item)
		}
	}
	if len(short) > 0 {
		return short
	}

	sorted := make([]storage.VideoItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DurationSeconds != sorted[j].DurationSeconds {
			return sorted[i].DurationSeconds < sorted[j].DurationSeconds
		}
		return sorted[i].ID < sorted[j].ID
	})
	if gridSize > 0 && len(sorted) > gridSize {
		sorted = sorted[:gridSize]
	}
	return sorted
}
