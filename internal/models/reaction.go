package models

import "gorm.io/gorm"

// ReactionType identifies one of the three independent toggle reactions
type ReactionType string

const (
	ReactionLeaf    ReactionType = "leaf"
	ReactionGoing   ReactionType = "going"
	ReactionRecycle ReactionType = "recycle"
)

// ReactionTypes lists every valid reaction type
var ReactionTypes = []ReactionType{ReactionLeaf, ReactionGoing, ReactionRecycle}

// Valid reports whether t is a known reaction type
func (t ReactionType) Valid() bool {
	switch t {
	case ReactionLeaf, ReactionGoing, ReactionRecycle:
		return true
	}
	return false
}

// ReactionCounts holds one value per reaction type. It serves both as the
// per-post aggregate totals and as a user's 0/1 flags.
type ReactionCounts struct {
	Leafs    int `json:"leafs"`
	Goings   int `json:"goings"`
	Recycles int `json:"recycles"`
}

// Get returns the count for a single reaction type
func (c ReactionCounts) Get(t ReactionType) int {
	switch t {
	case ReactionLeaf:
		return c.Leafs
	case ReactionGoing:
		return c.Goings
	case ReactionRecycle:
		return c.Recycles
	}
	return 0
}

// Set assigns the count for a single reaction type, leaving the others untouched
func (c *ReactionCounts) Set(t ReactionType, v int) {
	switch t {
	case ReactionLeaf:
		c.Leafs = v
	case ReactionGoing:
		c.Goings = v
	case ReactionRecycle:
		c.Recycles = v
	}
}

// ReactionStats is the per-post aggregate counter row. Exactly one row per
// post; each field equals the sum of the matching per-user flags at
// quiescence.
type ReactionStats struct {
	gorm.Model `json:"-"`
	PostID     string `json:"post_id" gorm:"uniqueIndex"` // MongoDB ObjectID as string
	Leafs      int    `json:"leafs"`
	Goings     int    `json:"goings"`
	Recycles   int    `json:"recycles"`
}

// Counts returns the aggregate totals as a ReactionCounts value
func (s *ReactionStats) Counts() ReactionCounts {
	return ReactionCounts{Leafs: s.Leafs, Goings: s.Goings, Recycles: s.Recycles}
}

// UserPostReaction stores one user's toggle flags for one post. At most one
// row per (user, post) pair; a cleared reaction is stored as 0, never by
// deleting the row.
type UserPostReaction struct {
	gorm.Model `json:"-"`
	UserID     uint   `json:"user_id" gorm:"uniqueIndex:idx_user_post_reaction"`
	PostID     string `json:"post_id" gorm:"uniqueIndex:idx_user_post_reaction"` // MongoDB ObjectID as string
	Leafs      int    `json:"leafs"`    // 0 or 1
	Goings     int    `json:"goings"`   // 0 or 1
	Recycles   int    `json:"recycles"` // 0 or 1
}

// Counts returns the user's flags as a ReactionCounts value
func (r *UserPostReaction) Counts() ReactionCounts {
	return ReactionCounts{Leafs: r.Leafs, Goings: r.Goings, Recycles: r.Recycles}
}

// SetCounts replaces all three flags from a ReactionCounts value
func (r *UserPostReaction) SetCounts(c ReactionCounts) {
	r.Leafs = c.Leafs
	r.Goings = c.Goings
	r.Recycles = c.Recycles
}
