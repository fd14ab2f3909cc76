package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/greenloop/ecopost/backend/internal/models"
	"github.com/greenloop/ecopost/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reactionKey struct {
	userID uint
	postID string
}

// fakeStore is an in-memory ReactionStore with injectable failures and a
// blocking hook for exercising the in-flight serialization discipline.
type fakeStore struct {
	mu        sync.Mutex
	stats     map[string]models.ReactionCounts
	reactions map[reactionKey]models.ReactionCounts

	failAggregate  error
	failUpsert     error
	conflictsLeft  int
	blockAggregate chan struct{} // closed by test to release a blocked write
	enteredWrite   chan struct{} // signalled once a write has started

	aggregateWrites int
	upsertCalls     int
	listCalls       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		stats:     make(map[string]models.ReactionCounts),
		reactions: make(map[reactionKey]models.ReactionCounts),
	}
}

func (f *fakeStore) GetStats(postID string) (*models.ReactionStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := f.stats[postID]
	return &models.ReactionStats{
		PostID:   postID,
		Leafs:    counts.Leafs,
		Goings:   counts.Goings,
		Recycles: counts.Recycles,
	}, nil
}

func (f *fakeStore) UpdateStatsField(postID string, t models.ReactionType, oldValue, newValue int) error {
	f.mu.Lock()
	entered := f.enteredWrite
	block := f.blockAggregate
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.aggregateWrites++

	if f.failAggregate != nil {
		return f.failAggregate
	}
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return repositories.ErrStatsConflict
	}

	counts := f.stats[postID]
	if counts.Get(t) != oldValue {
		return repositories.ErrStatsConflict
	}
	counts.Set(t, newValue)
	f.stats[postID] = counts
	return nil
}

func (f *fakeStore) GetUserReaction(userID uint, postID string) (*models.UserPostReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts, ok := f.reactions[reactionKey{userID, postID}]
	if !ok {
		return nil, nil
	}
	row := &models.UserPostReaction{UserID: userID, PostID: postID}
	row.SetCounts(counts)
	return row, nil
}

func (f *fakeStore) UpsertUserReaction(reaction *models.UserPostReaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.failUpsert != nil {
		return f.failUpsert
	}
	f.reactions[reactionKey{reaction.UserID, reaction.PostID}] = reaction.Counts()
	return nil
}

func (f *fakeStore) ListUserReactions(userID uint) ([]models.UserPostReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	var rows []models.UserPostReaction
	for key, counts := range f.reactions {
		if key.userID != userID {
			continue
		}
		row := models.UserPostReaction{UserID: key.userID, PostID: key.postID}
		row.SetCounts(counts)
		rows = append(rows, row)
	}
	return rows, nil
}

// sumFlags recomputes an aggregate field from the per-user rows
func (f *fakeStore) sumFlags(postID string, t models.ReactionType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for key, counts := range f.reactions {
		if key.postID == postID {
			total += counts.Get(t)
		}
	}
	return total
}

type fakePosts struct {
	mu         sync.Mutex
	posts      []models.Post
	fetchCalls int
}

func (f *fakePosts) GetAllPosts(_ context.Context, _, _ int64) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	out := make([]models.Post, len(f.posts))
	copy(out, f.posts)
	return out, nil
}

func newTestPost(title string) models.Post {
	return models.Post{ID: primitive.NewObjectID(), Title: title, Scale: "small"}
}

func newTestSession(t *testing.T, store *fakeStore, posts *fakePosts, userID uint) *Session {
	t.Helper()
	session := NewController(store, posts).NewSession(userID)
	require.NoError(t, session.Refresh(context.Background()))
	return session
}

func TestToggleSetsFlagAndAggregate(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("River Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 7)
	postID := post.ID.Hex()

	require.NoError(t, session.Toggle(context.Background(), postID, models.ReactionLeaf))

	assert.Equal(t, 1, session.Reaction(postID).Leafs)
	assert.Equal(t, 1, session.Posts()[0].Stats.Leafs)
	assert.Equal(t, 1, store.stats[postID].Leafs)
	assert.Equal(t, 1, store.reactions[reactionKey{7, postID}].Leafs)
}

func TestToggleTwiceRestoresOriginalState(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("River Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 7)
	postID := post.ID.Hex()
	ctx := context.Background()

	require.NoError(t, session.Toggle(ctx, postID, models.ReactionGoing))
	require.NoError(t, session.Toggle(ctx, postID, models.ReactionGoing))

	assert.Equal(t, 0, session.Reaction(postID).Goings)
	assert.Equal(t, 0, session.Posts()[0].Stats.Goings)
	assert.Equal(t, 0, store.stats[postID].Goings)
	// The row survives with the flag cleared, it is never deleted
	assert.Equal(t, 0, store.reactions[reactionKey{7, postID}].Goings)
}

func TestToggleIndependenceAcrossTypes(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("Beach Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 3)
	postID := post.ID.Hex()
	ctx := context.Background()

	require.NoError(t, session.Toggle(ctx, postID, models.ReactionGoing))
	require.NoError(t, session.Toggle(ctx, postID, models.ReactionRecycle))
	require.NoError(t, session.Toggle(ctx, postID, models.ReactionLeaf))
	require.NoError(t, session.Toggle(ctx, postID, models.ReactionLeaf))

	flags := session.Reaction(postID)
	assert.Equal(t, 0, flags.Leafs)
	assert.Equal(t, 1, flags.Goings)
	assert.Equal(t, 1, flags.Recycles)

	stored := store.reactions[reactionKey{3, postID}]
	assert.Equal(t, 0, stored.Leafs)
	assert.Equal(t, 1, stored.Goings)
	assert.Equal(t, 1, stored.Recycles)
}

func TestAggregateMatchesSumOfUserFlagsAtQuiescence(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("Park Picnic")
	posts := &fakePosts{posts: []models.Post{post}}
	postID := post.ID.Hex()
	ctx := context.Background()

	controller := NewController(store, posts)
	for _, userID := range []uint{1, 2, 3} {
		session := controller.NewSession(userID)
		require.NoError(t, session.Refresh(ctx))
		require.NoError(t, session.Toggle(ctx, postID, models.ReactionLeaf))
	}
	// One user toggles back off
	session := controller.NewSession(2)
	require.NoError(t, session.Refresh(ctx))
	require.NoError(t, session.Toggle(ctx, postID, models.ReactionLeaf))

	assert.Equal(t, store.sumFlags(postID, models.ReactionLeaf), store.stats[postID].Leafs)
	assert.Equal(t, 2, store.stats[postID].Leafs)
}

func TestRollbackOnAggregateFailure(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("River Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 7)
	postID := post.ID.Hex()

	store.failAggregate = errors.New("store unavailable")
	err := session.Toggle(context.Background(), postID, models.ReactionLeaf)

	require.ErrorIs(t, err, ErrRemoteWrite)
	assert.Equal(t, 0, session.Reaction(postID).Leafs, "local flag must revert")
	assert.Equal(t, 0, session.Posts()[0].Stats.Leafs, "local aggregate must revert")
	assert.Equal(t, 0, store.upsertCalls, "per-user upsert must not follow a failed aggregate write")
}

func TestUpsertFailureCompensatesAggregate(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("River Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 7)
	postID := post.ID.Hex()

	store.failUpsert = errors.New("store unavailable")
	err := session.Toggle(context.Background(), postID, models.ReactionLeaf)

	require.ErrorIs(t, err, ErrRemoteWrite)
	assert.Equal(t, 0, store.stats[postID].Leafs, "aggregate delta must be reverted")
	assert.Equal(t, 0, session.Reaction(postID).Leafs)
	assert.Equal(t, 0, session.Posts()[0].Stats.Leafs)
}

func TestAggregateConflictIsRetried(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("River Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 7)
	postID := post.ID.Hex()

	store.conflictsLeft = 2
	require.NoError(t, session.Toggle(context.Background(), postID, models.ReactionLeaf))

	assert.Equal(t, 1, store.stats[postID].Leafs)
	assert.Equal(t, 3, store.aggregateWrites)
}

func TestConcurrentSameToggleIsSerialized(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("River Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 7)
	postID := post.ID.Hex()

	store.enteredWrite = make(chan struct{}, 1)
	block := make(chan struct{})
	store.blockAggregate = block

	first := make(chan error, 1)
	go func() {
		first <- session.Toggle(context.Background(), postID, models.ReactionLeaf)
	}()
	<-store.enteredWrite // first toggle is now mid round-trip

	err := session.Toggle(context.Background(), postID, models.ReactionLeaf)
	assert.ErrorIs(t, err, ErrToggleInFlight)

	// A different type on the same post is not blocked
	store.mu.Lock()
	store.enteredWrite = nil
	store.blockAggregate = nil
	store.mu.Unlock()
	assert.NoError(t, session.Toggle(context.Background(), postID, models.ReactionGoing))

	close(block)
	require.NoError(t, <-first)
	assert.Equal(t, 1, store.stats[postID].Leafs)
}

func TestRefreshDeferredWhileToggleInFlight(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("River Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 7)
	postID := post.ID.Hex()
	fetchesAfterLoad := posts.fetchCalls

	store.enteredWrite = make(chan struct{}, 1)
	block := make(chan struct{})
	store.blockAggregate = block

	done := make(chan error, 1)
	go func() {
		done <- session.Toggle(context.Background(), postID, models.ReactionLeaf)
	}()
	<-store.enteredWrite

	// Refresh while the write is unresolved must not refetch or clobber
	// the optimistic mutation
	require.NoError(t, session.Refresh(context.Background()))
	assert.Equal(t, fetchesAfterLoad, posts.fetchCalls)
	assert.Equal(t, 1, session.Posts()[0].Stats.Leafs)

	store.mu.Lock()
	store.enteredWrite = nil
	store.blockAggregate = nil
	store.mu.Unlock()
	close(block)
	require.NoError(t, <-done)

	// The toggle that cleared the last in-flight entry ran the deferred refresh
	assert.Equal(t, fetchesAfterLoad+1, posts.fetchCalls)
	assert.Equal(t, 1, session.Posts()[0].Stats.Leafs)
}

func TestUnauthenticatedToggleIsNoOp(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("River Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 0)

	require.NoError(t, session.Toggle(context.Background(), post.ID.Hex(), models.ReactionLeaf))
	assert.Equal(t, 0, store.aggregateWrites)
	assert.Equal(t, 0, store.upsertCalls)
}

func TestToggleUnknownPost(t *testing.T) {
	store := newFakeStore()
	posts := &fakePosts{posts: []models.Post{newTestPost("River Cleanup")}}
	session := newTestSession(t, store, posts, 7)

	err := session.Toggle(context.Background(), primitive.NewObjectID().Hex(), models.ReactionLeaf)
	assert.ErrorIs(t, err, ErrUnknownPost)
}

func TestToggleKeepsSelectedPostInStep(t *testing.T) {
	store := newFakeStore()
	post := newTestPost("River Cleanup")
	posts := &fakePosts{posts: []models.Post{post}}
	session := newTestSession(t, store, posts, 7)
	postID := post.ID.Hex()

	require.NoError(t, session.SelectPost(postID))
	require.NoError(t, session.Toggle(context.Background(), postID, models.ReactionRecycle))

	require.NotNil(t, session.Selected())
	assert.Equal(t, 1, session.Selected().Stats.Recycles)
	assert.Equal(t, 1, session.Posts()[0].Stats.Recycles)
}
