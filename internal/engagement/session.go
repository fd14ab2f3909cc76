package engagement

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/greenloop/ecopost/backend/internal/models"
)

// flightKey identifies one in-flight toggle round-trip
type flightKey struct {
	postID string
	rtype  models.ReactionType
}

// Session is one user's local view of the feed: the post collection joined
// with aggregate counters, the per-user reaction cache, and an optional
// duplicated copy of a single post for the detail view. Toggles mutate this
// state before their remote writes resolve.
//
// All fields are guarded by mu. Same-(post, type) toggles are serialized
// through the inflight set; a second toggle arriving before the first
// resolves gets ErrToggleInFlight rather than being computed from a stale
// base. Refreshes are deferred while any toggle write is unresolved so a
// refetch can never clobber an optimistic mutation.
type Session struct {
	controller *Controller
	userID     uint

	mu             sync.Mutex
	posts          []models.FeedPost
	selected       *models.FeedPost
	reactions      map[string]models.ReactionCounts
	inflight       map[flightKey]struct{}
	refreshPending bool
}

// UserID returns the owning user's ID, zero for unauthenticated sessions
func (s *Session) UserID() uint {
	return s.userID
}

// Posts returns a copy of the current local post collection
func (s *Session) Posts() []models.FeedPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FeedPost, len(s.posts))
	copy(out, s.posts)
	return out
}

// Reaction returns the cached per-user flags for a post, zeros when the
// user has never reacted
func (s *Session) Reaction(postID string) models.ReactionCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reactions[postID]
}

// SelectPost duplicates one post into the detail-view slot. Toggle keeps
// the duplicate and the feed copy in step.
func (s *Session) SelectPost(postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID.Hex() == postID {
			dup := s.posts[i]
			s.selected = &dup
			return nil
		}
	}
	return ErrUnknownPost
}

// Selected returns a copy of the detail-view post, nil when none is selected
func (s *Session) Selected() *models.FeedPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	dup := *s.selected
	return &dup
}

// Toggle flips one reaction type on one post for the session's user. The
// local mutation lands first; the remote writes follow, and on failure the
// local change is rolled back and a resynchronizing refresh scheduled.
// Unauthenticated sessions no-op silently.
func (s *Session) Toggle(ctx context.Context, postID string, t models.ReactionType) error {
	if s.userID == 0 {
		return nil
	}
	if !t.Valid() {
		return fmt.Errorf("unknown reaction type: %s", t)
	}

	key := flightKey{postID: postID, rtype: t}

	s.mu.Lock()
	if !s.hasPostLocked(postID) {
		s.mu.Unlock()
		return ErrUnknownPost
	}
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return ErrToggleInFlight
	}

	flags := s.reactions[postID]
	previous := flags.Get(t)
	next := 0
	if previous == 0 {
		next = 1
	}
	delta := next - previous

	// Optimistic local mutation: the cache plus every in-memory copy of
	// the post, so the UI is consistent immediately.
	flags.Set(t, next)
	s.reactions[postID] = flags
	s.applyStatsDeltaLocked(postID, t, delta)
	s.inflight[key] = struct{}{}
	s.mu.Unlock()

	// Aggregate write first; only if it lands is the per-user upsert
	// attempted, carrying the flags as they stand at write time so an
	// interleaved toggle of another type is not clobbered.
	err := s.controller.writeAggregate(postID, t, delta)
	if err != nil {
		err = fmt.Errorf("aggregate update: %w", err)
	} else {
		s.mu.Lock()
		current := s.reactions[postID]
		s.mu.Unlock()
		err = s.controller.upsertReaction(s.userID, postID, t, delta, current)
	}

	s.mu.Lock()
	delete(s.inflight, key)
	if err != nil {
		// Roll back just the toggled field so a concurrent toggle on
		// another type of the same post is not clobbered.
		rolled := s.reactions[postID]
		rolled.Set(t, previous)
		s.reactions[postID] = rolled
		s.applyStatsDeltaLocked(postID, t, -delta)
		s.refreshPending = true
	}
	runRefresh := s.refreshPending && len(s.inflight) == 0
	s.mu.Unlock()

	if runRefresh {
		if refreshErr := s.refresh(ctx); refreshErr != nil {
			log.Printf("Failed to resynchronize feed state: %v", refreshErr)
		}
	}

	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	return nil
}

// Refresh refetches posts, stats and the user's reactions from the
// authoritative stores. While any toggle write is unresolved the refresh is
// deferred; the toggle that clears the last in-flight entry runs it.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if len(s.inflight) > 0 {
		s.refreshPending = true
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.refresh(ctx)
}

// refresh loads fresh state outside the lock and swaps it in, unless a new
// toggle started in the meantime, in which case the swap is abandoned and
// re-deferred.
func (s *Session) refresh(ctx context.Context) error {
	posts, err := s.controller.posts.GetAllPosts(ctx, 0, feedFetchLimit)
	if err != nil {
		return fmt.Errorf("fetch posts: %w", err)
	}

	fresh := make([]models.FeedPost, 0, len(posts))
	for _, p := range posts {
		stats, err := s.controller.store.GetStats(p.ID.Hex())
		if err != nil {
			return fmt.Errorf("fetch stats for post %s: %w", p.ID.Hex(), err)
		}
		fresh = append(fresh, models.FeedPost{Post: p, Stats: stats.Counts()})
	}

	reactions := make(map[string]models.ReactionCounts)
	if s.userID != 0 {
		rows, err := s.controller.store.ListUserReactions(s.userID)
		if err != nil {
			return fmt.Errorf("fetch user reactions: %w", err)
		}
		for _, row := range rows {
			reactions[row.PostID] = row.Counts()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inflight) > 0 {
		s.refreshPending = true
		return nil
	}
	s.posts = fresh
	s.reactions = reactions
	s.refreshPending = false
	if s.selected != nil {
		id := s.selected.ID.Hex()
		s.selected = nil
		for i := range s.posts {
			if s.posts[i].ID.Hex() == id {
				dup := s.posts[i]
				s.selected = &dup
				break
			}
		}
	}
	return nil
}

func (s *Session) hasPostLocked(postID string) bool {
	for i := range s.posts {
		if s.posts[i].ID.Hex() == postID {
			return true
		}
	}
	return false
}

// applyStatsDeltaLocked shifts one counter on every in-memory copy of a post
func (s *Session) applyStatsDeltaLocked(postID string, t models.ReactionType, delta int) {
	for i := range s.posts {
		if s.posts[i].ID.Hex() == postID {
			s.posts[i].Stats.Set(t, s.posts[i].Stats.Get(t)+delta)
		}
	}
	if s.selected != nil && s.selected.ID.Hex() == postID {
		s.selected.Stats.Set(t, s.selected.Stats.Get(t)+delta)
	}
}
