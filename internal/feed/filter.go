package feed

import (
	"strings"

	"github.com/greenloop/ecopost/backend/internal/models"
)

// SearchField selects which post field a query matches against
type SearchField string

const (
	SearchTitle    SearchField = "title"
	SearchLocation SearchField = "location"
)

// ParseSearchField maps a query-string value to a SearchField, defaulting to title
func ParseSearchField(s string) SearchField {
	if SearchField(s) == SearchLocation {
		return SearchLocation
	}
	return SearchTitle
}

// Filter returns the posts whose selected field contains the query as a
// case-insensitive substring, preserving input order. A blank query returns
// the input unchanged. Callers must always pass the full unfiltered
// collection so filter passes never compound.
func Filter(posts []models.FeedPost, field SearchField, query string) []models.FeedPost {
	query = strings.TrimSpace(query)
	if query == "" {
		return posts
	}
	query = strings.ToLower(query)

	matched := make([]models.FeedPost, 0, len(posts))
	for _, p := range posts {
		value := p.Title
		if field == SearchLocation {
			value = p.Location
		}
		if strings.Contains(strings.ToLower(value), query) {
			matched = append(matched, p)
		}
	}
	return matched
}
