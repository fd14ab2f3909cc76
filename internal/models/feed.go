package models

// FeedPost is a post joined with its aggregate counters for feed display.
// A post whose stats row is missing carries all-zero counts.
type FeedPost struct {
	Post
	Stats ReactionCounts `json:"stats"`
}

// EnrichedFeedPost additionally carries author info and the viewing user's
// own reaction flags, sourced from the per-user reaction table.
type EnrichedFeedPost struct {
	FeedPost
	Author UserCompact    `json:"author"`
	Viewer ReactionCounts `json:"viewer_reaction"`
}
