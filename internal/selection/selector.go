package selection

import (
	"math/rand"
	"time"

	"github.com/goodtune/tubetime/internal/storage"
)

const (
	// noveltyWeight is the weight of a never-watched item. Engagement can
	// raise a favorite above it, but fresh content always starts competitive.
	noveltyWeight = 1.0
	// recencyDampener multiplies the weight of items watched within the last
	// 24 hours. Reduced, never zeroed.
	recencyDampener = 0.25
	recencyWindow   = 24 * time.Hour
	// epsilonWeight floors every weight so no item's probability reaches
	// zero.
	epsilonWeight = 0.05
)

// Selector performs weighted sampling over catalog candidates. The rand
// source is injected so tests can seed it.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a Selector backed by the given source.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Select draws up to count items without replacement, weighted by engagement
// and dampened for anything watched within the last day. Fewer candidates
// than count returns them all (shuffled by the same draw).
func (s *Selector) Select(candidates []storage.VideoItem, stats map[string]storage.ItemStats, now time.Time, count int) []storage.VideoItem {
	if count <= 0 || len(candidates) == 0 {
		return []storage.VideoItem{}
	}

	pool := make([]storage.VideoItem, len(candidates))
	copy(pool, candidates)
	weights := make([]float64, len(pool))
	for i, item := range pool {
		weights[i] = itemWeight(stats, item.ID, now)
	}

	if count > len(pool) {
		count = len(pool)
	}

	selected := make([]storage.VideoItem, 0, count)
	for len(selected) < count {
		idx := s.draw(weights)
		selected = append(selected, pool[idx])

		last := len(pool) - 1
		pool[idx], pool[last] = pool[last], pool[idx]
		weights[idx], weights[last] = weights[last], weights[idx]
		pool = pool[:last]
		weights = weights[:last]
	}

	return selected
}

// draw picks an index proportionally to its weight.
func (s *Selector) draw(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}

	r := s.rng.Float64() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// itemWeight scores one item. Unwatched items carry the novelty weight;
// watched items earn theirs from completion rate and replay count, dampened
// when the last watch was within the recency window.
func itemWeight(stats map[string]storage.ItemStats, id string, now time.Time) float64 {
	st, ok := stats[id]
	if !ok || st.Plays == 0 {
		return noveltyWeight
	}

	completionRate := float64(st.Completions) / float64(st.Plays)
	replays := st.Plays
	if replays > 10 {
		replays = 10
	}
	weight := (0.2 + 0.8*completionRate) * (1.0 + 0.05*float64(replays))

	if now.Sub(st.LastWatchedAt) < recencyWindow {
		weight *= recencyDampener
	}

	if weight < epsilonWeight {
		weight = epsilonWeight
	}
	return weight
}
