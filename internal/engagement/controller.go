// Package engagement implements the optimistic toggle-reaction core: local
// feed state is mutated immediately, the two remote writes follow, and a
// failed write rolls the local mutation back.
package engagement

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/greenloop/ecopost/backend/internal/models"
	"github.com/greenloop/ecopost/backend/internal/repositories"
)

var (
	// ErrToggleInFlight means a toggle for the same (post, type) has not
	// resolved yet. The caller retries once it has.
	ErrToggleInFlight = errors.New("reaction toggle already in flight")

	// ErrUnknownPost means the post is not present in local feed state
	ErrUnknownPost = errors.New("post not present in feed state")

	// ErrRemoteWrite wraps a failed remote reaction write. Local state has
	// been rolled back and a resynchronizing refresh scheduled.
	ErrRemoteWrite = errors.New("remote reaction write failed")
)

// ReactionStore is the persistence surface the controller writes reactions
// through. Satisfied by repositories.ReactionRepository.
type ReactionStore interface {
	GetStats(postID string) (*models.ReactionStats, error)
	UpdateStatsField(postID string, t models.ReactionType, oldValue, newValue int) error
	GetUserReaction(userID uint, postID string) (*models.UserPostReaction, error)
	UpsertUserReaction(reaction *models.UserPostReaction) error
	ListUserReactions(userID uint) ([]models.UserPostReaction, error)
}

// PostSource supplies the authoritative post list for refreshes. Satisfied
// by repositories.PostRepository.
type PostSource interface {
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error)
}

const (
	// statsConflictRetries bounds the optimistic-concurrency retry loop on
	// the aggregate counter write
	statsConflictRetries = 3

	// feedFetchLimit caps how many posts a session refresh pulls
	feedFetchLimit = 500
)

// Controller owns the remote write protocol for reaction toggles and hands
// out per-user Sessions holding the optimistic local state.
type Controller struct {
	store ReactionStore
	posts PostSource
}

// NewController creates a new Controller
func NewController(store ReactionStore, posts PostSource) *Controller {
	return &Controller{store: store, posts: posts}
}

// NewSession creates the local feed state for one user. A zero userID makes
// an unauthenticated session whose toggles are silent no-ops.
func (c *Controller) NewSession(userID uint) *Session {
	return &Session{
		controller: c,
		userID:     userID,
		reactions:  make(map[string]models.ReactionCounts),
		inflight:   make(map[flightKey]struct{}),
	}
}

// writeAggregate applies delta to one counter column using read-modify-write
// conditioned on the value read, retrying a bounded number of times when a
// concurrent writer moved the row first.
func (c *Controller) writeAggregate(postID string, t models.ReactionType, delta int) error {
	for attempt := 0; attempt < statsConflictRetries; attempt++ {
		stats, err := c.store.GetStats(postID)
		if err != nil {
			return err
		}
		current := stats.Counts().Get(t)
		next := current + delta
		if next < 0 {
			next = 0
		}

		err = c.store.UpdateStatsField(postID, t, current, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrStatsConflict) {
			return err
		}
	}
	return repositories.ErrStatsConflict
}

// upsertReaction writes the per-user row carrying all three flags. On
// failure the already-applied aggregate delta is compensated before the
// error surfaces, so counter and per-user table do not silently diverge.
func (c *Controller) upsertReaction(userID uint, postID string, t models.ReactionType, delta int, flags models.ReactionCounts) error {
	row := &models.UserPostReaction{UserID: userID, PostID: postID}
	row.SetCounts(flags)
	if err := c.store.UpsertUserReaction(row); err != nil {
		if revertErr := c.writeAggregate(postID, t, -delta); revertErr != nil {
			// Counter and per-user table now disagree until the next
			// refresh rebuilds local state from the per-user rows.
			log.Printf("Failed to revert aggregate %s on post %s after upsert failure: %v", t, postID, revertErr)
		}
		return fmt.Errorf("reaction upsert: %w", err)
	}
	return nil
}
