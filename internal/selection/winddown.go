// Package selection filters and samples the catalog for the on-screen grid.
package selection

import "github.com/goodtune/tubetime/internal/storage"

// WindDown keeps items short enough to finish inside the remaining budget.
// When nothing qualifies the unfiltered input is returned: the kiosk must
// never present an empty grid while time remains.
func WindDown(items []storage.VideoItem, minutesRemaining int) []storage.VideoItem {
	maxSeconds := int64(minutesRemaining) * 60

	filtered := make([]storage.VideoItem, 0, len(items))
	for _, item := range items {
		if item.DurationSeconds <= maxSeconds {
			filtered = append(filtered, item)
		}
	}

	if len(filtered) == 0 {
		return items
	}
	return filtered
}

// MaxDuration keeps items at or under the given duration cap. A
// non-positive cap disables the filter.
func MaxDuration(items []storage.VideoItem, maxSeconds int64) []storage.VideoItem {
	if maxSeconds <= 0 {
		return items
	}
	filtered := make([]storage.VideoItem, 0, len(items))
	for _, item := range items {
		if item.DurationSeconds <= maxSeconds {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
