package social

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/deemkeen/chirp/db"
	"github.com/deemkeen/chirp/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyStore counts calls and injects failures in front of a real store.
type spyStore struct {
	*db.DB
	calls int

	failReads        error
	failCreatePost   error
	failUpdateFollow error
}

func (s *spyStore) ReadAllPosts(ctx context.Context) ([]domain.Post, error) {
	s.calls++
	if s.failReads != nil {
		return nil, s.failReads
	}
	return s.DB.ReadAllPosts(ctx)
}

func (s *spyStore) CreatePost(ctx context.Context, p *domain.SavePost) (*domain.Post, error) {
	s.calls++
	if s.failCreatePost != nil {
		return nil, s.failCreatePost
	}
	return s.DB.CreatePost(ctx, p)
}

func (s *spyStore) UpdatePost(ctx context.Context, id int64, patch domain.PostPatch) error {
	s.calls++
	return s.DB.UpdatePost(ctx, id, patch)
}

func (s *spyStore) UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.ProfilePatch) error {
	s.calls++
	return s.DB.UpdateProfile(ctx, id, patch)
}

func (s *spyStore) UpdateFollow(ctx context.Context, change domain.FollowChange) error {
	s.calls++
	if s.failUpdateFollow != nil {
		return s.failUpdateFollow
	}
	return s.DB.UpdateFollow(ctx, change)
}

func setupStore(t *testing.T) *spyStore {
	t.Helper()
	database, err := db.Open(db.DriverSqlite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(context.Background()))
	t.Cleanup(func() { database.Close() })
	return &spyStore{DB: database}
}

func addProfile(t *testing.T, store *spyStore, handle string) *domain.Profile {
	t.Helper()
	p := &domain.Profile{
		Id:          uuid.New(),
		Handle:      handle,
		DisplayName: "Name of " + handle,
		Following:   domain.HandleSet{},
		Followers:   domain.HandleSet{},
	}
	require.NoError(t, store.CreateProfile(context.Background(), p))
	return p
}

func newSyncedEngine(t *testing.T, store *spyStore, me *domain.Profile, opts ...Option) *Engine {
	t.Helper()
	e := NewEngine(store, me, opts...)
	require.NoError(t, e.Resync(context.Background()))
	return e
}

func TestCreatePostRoundTrip(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	e := newSyncedEngine(t, store, a)
	ctx := context.Background()

	require.NoError(t, e.CreatePost(ctx, "first"))
	require.NoError(t, e.CreatePost(ctx, "  hello \r\n"))

	snap := e.Snapshot()
	require.Len(t, snap.Posts, 2)
	top := snap.Posts[0]
	assert.Equal(t, "hello", top.Content)
	assert.Equal(t, "a", top.Handle)
	assert.Equal(t, a.Id, top.AuthorId)
	assert.Empty(t, top.Likes)
	assert.Empty(t, top.Reposts)
	assert.Empty(t, top.Replies)
}

func TestCreatePostEmptyMakesNoStoreCall(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	e := newSyncedEngine(t, store, a)
	before := e.Snapshot()
	store.calls = 0

	for _, content := range []string{"", "   ", "\n\t"} {
		err := e.CreatePost(context.Background(), content)
		assert.ErrorIs(t, err, ErrValidation)
	}

	assert.Zero(t, store.calls)
	assert.Same(t, before, e.Snapshot())
}

func TestCreatePostFailureKeepsState(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	e := newSyncedEngine(t, store, a)
	before := e.Snapshot()

	store.failCreatePost = errors.New("insert rejected")
	err := e.CreatePost(context.Background(), "hello")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSync)
	assert.Same(t, before, e.Snapshot())
}

func TestToggleLikeIsSymmetric(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	b := addProfile(t, store, "b")
	ea := newSyncedEngine(t, store, a)
	eb := newSyncedEngine(t, store, b)
	ctx := context.Background()

	require.NoError(t, ea.CreatePost(ctx, "like me"))
	id := ea.Snapshot().Posts[0].Id

	require.NoError(t, ea.ToggleLike(ctx, id))
	require.NoError(t, eb.ToggleLike(ctx, id))
	require.NoError(t, ea.ToggleLike(ctx, id))
	require.NoError(t, ea.ToggleLike(ctx, id))

	post, ok := ea.Snapshot().Post(id)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"a", "b"}, post.Likes)

	require.NoError(t, ea.ToggleLike(ctx, id))
	require.NoError(t, eb.ToggleLike(ctx, id))
	post, _ = eb.Snapshot().Post(id)
	assert.Empty(t, post.Likes)
}

func TestToggleRepostTwiceRestores(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	e := newSyncedEngine(t, store, a)
	ctx := context.Background()

	require.NoError(t, e.CreatePost(ctx, "repost me"))
	id := e.Snapshot().Posts[0].Id

	require.NoError(t, e.ToggleRepost(ctx, id))
	post, _ := e.Snapshot().Post(id)
	assert.Equal(t, domain.HandleSet{"a"}, post.Reposts)

	require.NoError(t, e.ToggleRepost(ctx, id))
	post, _ = e.Snapshot().Post(id)
	assert.Empty(t, post.Reposts)
}

func TestToggleLikeMissingPost(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	e := newSyncedEngine(t, store, a)

	err := e.ToggleLike(context.Background(), 42)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestSubmitReplyAppendsInOrder(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	b := addProfile(t, store, "b")
	ea := newSyncedEngine(t, store, a)
	eb := newSyncedEngine(t, store, b)
	ctx := context.Background()

	require.NoError(t, ea.CreatePost(ctx, "thread"))
	id := ea.Snapshot().Posts[0].Id

	require.NoError(t, eb.SubmitReply(ctx, id, "one"))
	require.NoError(t, eb.SubmitReply(ctx, id, "two"))
	require.NoError(t, ea.SubmitReply(ctx, id, "three"))

	post, _ := ea.Snapshot().Post(id)
	require.Len(t, post.Replies, 3)
	assert.Equal(t, "one", post.Replies[0].Content)
	assert.Equal(t, "b", post.Replies[0].Handle)
	assert.Equal(t, "three", post.Replies[2].Content)
	assert.Equal(t, "a", post.Replies[2].Handle)
	assert.NotEqual(t, post.Replies[0].Id, post.Replies[1].Id)
	assert.Len(t, post.Replies[0].Id, 26)

	store.calls = 0
	assert.ErrorIs(t, eb.SubmitReply(ctx, id, "  "), ErrValidation)
	assert.Zero(t, store.calls)
}

func TestDeletePost(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	b := addProfile(t, store, "b")
	ctx := context.Background()

	theirs, err := store.DB.CreatePost(ctx, &domain.SavePost{AuthorId: b.Id, Handle: "b", DisplayName: "B", Content: "not yours"})
	require.NoError(t, err)

	e := newSyncedEngine(t, store, a)
	require.NoError(t, e.CreatePost(ctx, "mine"))
	mine := e.Snapshot().Posts[0].Id

	err = e.DeletePost(ctx, theirs.Id)
	assert.ErrorIs(t, err, ErrNotAuthor)
	_, ok := e.Snapshot().Post(theirs.Id)
	assert.True(t, ok)

	require.NoError(t, e.DeletePost(ctx, mine))
	_, ok = e.Snapshot().Post(mine)
	assert.False(t, ok)

	assert.ErrorIs(t, e.DeletePost(ctx, mine), ErrPostNotFound)
}

func TestToggleFollowScenario(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	addProfile(t, store, "b")
	e := newSyncedEngine(t, store, a)
	ctx := context.Background()

	require.NoError(t, e.ToggleFollow(ctx, "b"))
	snap := e.Snapshot()
	assert.Equal(t, domain.HandleSet{"b"}, snap.Me.Following)
	assert.Equal(t, domain.HandleSet{"b"}, snap.Profiles["a"].Following)
	assert.Equal(t, domain.HandleSet{"a"}, snap.Profiles["b"].Followers)
	assert.Empty(t, snap.Asymmetries)

	require.NoError(t, e.ToggleFollow(ctx, "b"))
	snap = e.Snapshot()
	assert.Empty(t, snap.Me.Following)
	assert.Empty(t, snap.Profiles["b"].Followers)
}

func TestToggleFollowKeepsSymmetry(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	handles := []string{"a", "b", "c", "d"}
	engines := map[string]*Engine{}
	for _, h := range handles {
		p := addProfile(t, store, h)
		engines[h] = NewEngine(store, p)
	}

	// every ordered pair toggles once, then every third pair toggles again
	n := 0
	for _, from := range handles {
		for _, to := range handles {
			if from == to {
				continue
			}
			require.NoError(t, engines[from].ToggleFollow(ctx, to))
			if n%3 == 0 {
				require.NoError(t, engines[from].ToggleFollow(ctx, to))
			}
			n++
		}
	}

	require.NoError(t, engines["a"].Resync(ctx))
	snap := engines["a"].Snapshot()
	for _, x := range handles {
		for _, y := range handles {
			follows := snap.Profiles[x].Following.Contains(y)
			followed := snap.Profiles[y].Followers.Contains(x)
			assert.Equal(t, follows, followed, fmt.Sprintf("%s -> %s", x, y))
		}
	}
	assert.Empty(t, snap.Asymmetries)
}

func TestToggleFollowRejectsSelfAndUnknown(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	e := newSyncedEngine(t, store, a)
	ctx := context.Background()

	assert.ErrorIs(t, e.ToggleFollow(ctx, "a"), ErrSelfFollow)
	assert.ErrorIs(t, e.ToggleFollow(ctx, "ghost"), ErrUnknownTarget)
	assert.Empty(t, e.Me().Following)
}

func TestToggleFollowFailureChangesNothing(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	addProfile(t, store, "b")
	e := newSyncedEngine(t, store, a)
	before := e.Snapshot()

	store.failUpdateFollow = errors.New("transaction aborted")
	assert.Error(t, e.ToggleFollow(context.Background(), "b"))
	assert.Same(t, before, e.Snapshot())

	stored, err := store.ReadProfileById(context.Background(), a.Id)
	require.NoError(t, err)
	assert.Empty(t, stored.Following)
}

func TestToggleFollowPublishesFollowingBeforeResync(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	addProfile(t, store, "b")
	e := newSyncedEngine(t, store, a)
	prevSync := e.Snapshot().SyncedAt

	store.failReads = errors.New("connection reset")
	err := e.ToggleFollow(context.Background(), "b")
	assert.ErrorIs(t, err, ErrSync)

	snap := e.Snapshot()
	assert.Equal(t, domain.HandleSet{"b"}, snap.Me.Following)
	assert.Equal(t, prevSync, snap.SyncedAt, "posts and profiles stay from the last good sync")
}

func TestResyncFailureKeepsPreviousSnapshot(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	e := newSyncedEngine(t, store, a)
	require.NoError(t, e.CreatePost(context.Background(), "still here"))
	before := e.Snapshot()

	store.failReads = errors.New("network down")
	err := e.Resync(context.Background())
	assert.ErrorIs(t, err, ErrSync)
	assert.Same(t, before, e.Snapshot())
	assert.Equal(t, "still here", e.Snapshot().Posts[0].Content)
}

func TestMutationSucceedsWhenResyncFails(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	e := newSyncedEngine(t, store, a)

	store.failReads = errors.New("network down")
	err := e.CreatePost(context.Background(), "written anyway")
	assert.ErrorIs(t, err, ErrSync)
	assert.Empty(t, e.Snapshot().Posts)

	store.failReads = nil
	require.NoError(t, e.Resync(context.Background()))
	assert.Len(t, e.Snapshot().Posts, 1)
}

func TestResyncRepairsAsymmetricFollows(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	a := addProfile(t, store, "a")
	b := addProfile(t, store, "b")
	c := addProfile(t, store, "c")

	// a follows b on one side only, c claims a follower that never followed
	following := domain.HandleSet{"b"}
	require.NoError(t, store.DB.UpdateProfile(ctx, a.Id, domain.ProfilePatch{Following: &following}))
	followers := domain.HandleSet{"b"}
	require.NoError(t, store.DB.UpdateProfile(ctx, c.Id, domain.ProfilePatch{Followers: &followers}))

	plain := newSyncedEngine(t, store, a)
	assert.ElementsMatch(t, []FollowAsymmetry{
		{Follower: "a", Followee: "b", Kind: MissingFollower},
		{Follower: "b", Followee: "c", Kind: StaleFollower},
	}, plain.Snapshot().Asymmetries)

	repairing := newSyncedEngine(t, store, a, WithFollowRepair(true))
	snap := repairing.Snapshot()
	assert.Empty(t, snap.Asymmetries)
	assert.Equal(t, domain.HandleSet{"a"}, snap.Profiles["b"].Followers)
	assert.Empty(t, snap.Profiles["c"].Followers)

	stored, err := store.ReadProfileById(ctx, b.Id)
	require.NoError(t, err)
	assert.Equal(t, domain.HandleSet{"a"}, stored.Followers)
}

func TestEditProfile(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	e := newSyncedEngine(t, store, a)
	ctx := context.Background()

	store.calls = 0
	assert.ErrorIs(t, e.EditProfile(ctx, "   ", "bio"), ErrValidation)
	assert.Zero(t, store.calls)

	require.NoError(t, e.EditProfile(ctx, " Alice ", "  likes cats "))
	me := e.Me()
	assert.Equal(t, "Alice", me.DisplayName)
	assert.Equal(t, "likes cats", me.Bio)
	assert.Equal(t, "a", me.Handle)
}

func TestResyncReplacesMeWithFetchedProfile(t *testing.T) {
	store := setupStore(t)
	a := addProfile(t, store, "a")
	stale := *a
	stale.DisplayName = "Stale"

	e := NewEngine(store, &stale)
	require.NoError(t, e.Resync(context.Background()))
	assert.Equal(t, "Name of a", e.Me().DisplayName)
}
