// Package feed contains the pure in-memory ranking and search layer applied
// to a post collection before display.
package feed

import (
	"sort"

	"github.com/greenloop/ecopost/backend/internal/models"
)

// SortKey selects one of the six supported feed orderings
type SortKey string

const (
	SortNewest      SortKey = "newest"
	SortOldest      SortKey = "oldest"
	SortMostLeafs   SortKey = "most_leafs"
	SortLeastLeafs  SortKey = "least_leafs"
	SortMostGoings  SortKey = "most_goings"
	SortLeastGoings SortKey = "least_goings"
)

// ParseSortKey maps a query-string value to a SortKey, defaulting to newest
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortOldest, SortMostLeafs, SortLeastLeafs, SortMostGoings, SortLeastGoings:
		return SortKey(s)
	}
	return SortNewest
}

// Rank returns a new slice ordered by the given key. The input is not
// mutated. The sort is stable, so posts with equal keys keep their input
// order. Posts without a stats row already carry zero counts.
func Rank(posts []models.FeedPost, key SortKey) []models.FeedPost {
	ranked := make([]models.FeedPost, len(posts))
	copy(ranked, posts)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch key {
		case SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortMostLeafs:
			return a.Stats.Leafs > b.Stats.Leafs
		case SortLeastLeafs:
			return a.Stats.Leafs < b.Stats.Leafs
		case SortMostGoings:
			return a.Stats.Goings > b.Stats.Goings
		case SortLeastGoings:
			return a.Stats.Goings < b.Stats.Goings
		default: // SortNewest
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	return ranked
}
