package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

type fakeCache struct {
	version int64
	entries map[int64][]domain.FeedPost
	getErr  error
	puts    int
}

func (c *fakeCache) Get(context.Context) ([]domain.FeedPost, int64, bool, error) {
	if c.getErr != nil {
		return nil, 0, false, c.getErr
	}
	posts, ok := c.entries[c.version]
	return posts, c.version, ok, nil
}

func (c *fakeCache) Put(_ context.Context, version int64, posts []domain.FeedPost) error {
	c.puts++
	if c.entries == nil {
		c.entries = map[int64][]domain.FeedPost{}
	}
	c.entries[version] = posts
	return nil
}

type failingReader struct{}

func (failingReader) ListFeed(context.Context, string) ([]domain.FeedPost, error) {
	return nil, domain.ErrStoreUnavailable
}

func TestListPosts_OrderAndEnrichment(t *testing.T) {
	ctx := context.Background()
	var tick int
	clock := func() time.Time {
		tick++
		return fixedNow.Add(time.Duration(tick) * time.Minute)
	}
	f := newFixture(t, WithClock(clock))
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	older := f.post(t, alice, "older")
	newer := f.post(t, bob, "newer")
	require.True(t, f.engagement.CreateComment(ctx, bob, older, "first").Success)
	require.True(t, f.engagement.CreateComment(ctx, alice, older, "second").Success)
	require.True(t, f.engagement.ToggleLike(ctx, bob, older).Success)

	posts, err := f.feed.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, newer, posts[0].ID)
	assert.Equal(t, "bob", posts[0].Author.Username)

	p := posts[1]
	assert.Equal(t, older, p.ID)
	assert.Equal(t, 2, p.CommentCount)
	assert.Equal(t, "first", p.Comments[0].Content)
	assert.Equal(t, "bob", p.Comments[0].Author.Username)
	assert.Equal(t, "second", p.Comments[1].Content)
	assert.Equal(t, 1, p.LikeCount)
	assert.True(t, p.IsLikedBy(bob))
	assert.False(t, p.IsLikedBy(alice))
}

func TestListPosts_HardFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewFeedService(failingReader{}, f.store, nil)

	_, err := svc.ListPosts(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestListPosts_ReadThroughCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.post(t, alice, "hello")

	cache := &fakeCache{version: 4}
	svc := NewFeedService(f.store, f.store, cache)

	first, err := svc.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.puts)
	assert.Equal(t, first, cache.entries[4])

	// hit : le store n'est plus consulté
	cached := NewFeedService(failingReader{}, f.store, cache)
	second, err := cached.ListPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// invalidation = nouvelle version = miss
	cache.version++
	_, err = cached.ListPosts(ctx)
	assert.Error(t, err)
}

func TestListPosts_CacheDownFallsBackToStore(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.post(t, alice, "hello")
	cache := &fakeCache{getErr: errors.New("redis: connection refused")}

	posts, err := NewFeedService(f.store, f.store, cache).ListPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Zero(t, cache.puts)
}

func TestListPostsByAuthor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.post(t, alice, "a1")
	f.post(t, bob, "b1")

	posts, err := f.feed.ListPostsByAuthor(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "b1", posts[0].Content)

	_, err = f.feed.ListPostsByAuthor(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGraphProjection(t *testing.T) {
	ctx := context.Background()
	graph := &fakeGraph{}
	p := NewGraphProjection(graph)

	require.NoError(t, p.Project(ctx, domain.Event{Type: domain.EventFollowCreated, ActorID: "a", TargetUserID: "b"}))
	require.NoError(t, p.Project(ctx, domain.Event{Type: domain.EventFollowDeleted, ActorID: "a", TargetUserID: "b"}))
	require.NoError(t, p.Project(ctx, domain.Event{Type: domain.EventLikeCreated, ActorID: "a", PostID: "p"}))
	assert.Error(t, p.Project(ctx, domain.Event{Type: domain.EventFollowCreated, ActorID: "a"}))

	assert.Equal(t, [][2]string{{"a", "b"}}, graph.created)
	assert.Equal(t, [][2]string{{"a", "b"}}, graph.deleted)
}
