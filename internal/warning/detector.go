// Package warning detects progressive time-remaining warnings and records
// their display audit trail.
package warning

import "github.com/goodtune/tubetime/internal/storage"

// tiers in descending order, so crossings are reported in display order.
var tiers = []storage.WarningTier{
	storage.WarningTier10,
	storage.WarningTier5,
	storage.WarningTier2,
}

// Crossings returns the warning tiers crossed when the remaining budget moves
// from prevRemaining to currRemaining minutes. A tier fires when the value
// crosses its boundary downward, and only when the tier is strictly below the
// configured daily limit: an 8-minute limit day starts below the 10-minute
// boundary and must not open with a warning.
//
// Remaining time within a day is monotone non-increasing, so each boundary
// can cross at most once per day; idempotence needs no stored state.
func Crossings(limitMinutes, prevRemaining, currRemaining int) []storage.WarningTier {
	crossed := make([]storage.WarningTier, 0, len(tiers))
	for _, tier := range tiers {
		if int(tier) >= limitMinutes {
			continue
		}
		if prevRemaining > int(tier) && currRemaining <= int(tier) {
			crossed = append(crossed, tier)
		}
	}
	return crossed
}
