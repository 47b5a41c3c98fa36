package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

var t0 = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store, id, username string) {
	t.Helper()
	_, err := s.UpsertByExternalID(context.Background(), &domain.User{
		ID:         id,
		ExternalID: "ext_" + id,
		Email:      username + "@example.com",
		Username:   username,
		Name:       username,
		CreatedAt:  t0,
		UpdatedAt:  t0,
	})
	require.NoError(t, err)
}

func seedPost(t *testing.T, s *Store, id, authorID string, at time.Time) {
	t.Helper()
	require.NoError(t, s.Apply(context.Background(), domain.InsertPost{Post: domain.Post{
		ID: id, AuthorID: authorID, Content: "post " + id, CreatedAt: at, UpdatedAt: at,
	}}))
}

func TestUpsertByExternalID_KeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")

	got, err := s.UpsertByExternalID(ctx, &domain.User{
		ID:         "other-id",
		ExternalID: "ext_u1",
		Email:      "alice@new.example.com",
		Username:   "alice2",
		Name:       "Alice B",
		UpdatedAt:  t0.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.Equal(t, "alice", got.Username, "username is only set on insert")
	assert.Equal(t, "Alice B", got.Name)
	assert.Equal(t, "alice@new.example.com", got.Email)

	_, err = s.UpsertByExternalID(ctx, &domain.User{
		ID: "u9", ExternalID: "ext_u9", Email: "x@example.com", Username: "alice",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestApply_IsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	seedPost(t, s, "p1", "u1", t0)

	err := s.Apply(ctx,
		domain.InsertComment{Comment: domain.Comment{ID: "c1", PostID: "p1", AuthorID: "u2", Content: "hi", CreatedAt: t0}},
		domain.InsertNotification{Notification: domain.Notification{
			ID: "n1", Type: domain.NotificationComment, RecipientID: "u1", ActorID: "ghost", PostID: "p1", CommentID: "c1",
		}},
	)
	require.ErrorIs(t, err, domain.ErrUserNotFound)

	feed, err := s.ListFeed(ctx, "")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Empty(t, feed[0].Comments, "comment must not survive a failed unit")
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")
	seedPost(t, s, "p1", "u1", t0)

	remove := domain.DeleteLike{UserID: "u1", PostID: "p1"}
	create := domain.InsertLike{Like: domain.Like{ID: "l1", UserID: "u1", PostID: "p1", CreatedAt: t0}}

	on, err := s.Toggle(ctx, remove, create)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = s.Toggle(ctx, remove, create)
	require.NoError(t, err)
	assert.False(t, on)

	feed, err := s.ListFeed(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, feed[0].LikeCount)
}

func TestConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	seedPost(t, s, "p1", "u1", t0)

	like := domain.InsertLike{Like: domain.Like{ID: "l1", UserID: "u2", PostID: "p1"}}
	require.NoError(t, s.Apply(ctx, like))
	assert.ErrorIs(t, s.Apply(ctx, domain.InsertLike{Like: domain.Like{ID: "l2", UserID: "u2", PostID: "p1"}}), domain.ErrConflict)

	assert.ErrorIs(t, s.Apply(ctx, domain.InsertFollow{Follow: domain.Follow{FollowerID: "u1", FollowingID: "u1"}}), domain.ErrSelfFollow)
	assert.ErrorIs(t, s.Apply(ctx, domain.InsertFollow{Follow: domain.Follow{FollowerID: "u1", FollowingID: "nobody"}}), domain.ErrUserNotFound)
	assert.ErrorIs(t, s.Apply(ctx, domain.InsertLike{Like: domain.Like{ID: "l3", UserID: "u1", PostID: "nope"}}), domain.ErrPostNotFound)
	assert.ErrorIs(t, s.Apply(ctx, domain.InsertNotification{Notification: domain.Notification{
		ID: "n1", Type: domain.NotificationLike, RecipientID: "u1", ActorID: "u1",
	}}), domain.ErrConflict)
}

func TestDeletePost_Cascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	seedPost(t, s, "p1", "u1", t0)
	seedPost(t, s, "p2", "u1", t0.Add(time.Minute))

	require.NoError(t, s.Apply(ctx,
		domain.InsertComment{Comment: domain.Comment{ID: "c1", PostID: "p1", AuthorID: "u2", Content: "nice", CreatedAt: t0}},
		domain.InsertNotification{Notification: domain.Notification{ID: "n1", Type: domain.NotificationComment, RecipientID: "u1", ActorID: "u2", PostID: "p1", CommentID: "c1"}},
		domain.InsertLike{Like: domain.Like{ID: "l1", UserID: "u2", PostID: "p1"}},
		domain.InsertNotification{Notification: domain.Notification{ID: "n2", Type: domain.NotificationLike, RecipientID: "u1", ActorID: "u2", PostID: "p2"}},
	))

	assert.ErrorIs(t, s.Apply(ctx, domain.DeletePost{PostID: "p1", AuthorID: "u2"}), domain.ErrPostNotFound, "author guard")
	require.NoError(t, s.Apply(ctx, domain.DeletePost{PostID: "p1", AuthorID: "u1"}))

	_, err := s.GetPost(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrPostNotFound)

	inbox, err := s.ListNotifications(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "n2", inbox[0].ID)
	assert.Equal(t, "bob", inbox[0].Actor.Username)
}

func TestListFeed_Ordering(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	seedPost(t, s, "old", "u1", t0)
	seedPost(t, s, "new", "u2", t0.Add(time.Hour))

	require.NoError(t, s.Apply(ctx,
		domain.InsertComment{Comment: domain.Comment{ID: "c2", PostID: "old", AuthorID: "u2", Content: "second", CreatedAt: t0.Add(2 * time.Minute)}},
		domain.InsertComment{Comment: domain.Comment{ID: "c1", PostID: "old", AuthorID: "u1", Content: "first", CreatedAt: t0.Add(time.Minute)}},
	))

	feed, err := s.ListFeed(ctx, "")
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "new", feed[0].ID)
	assert.Equal(t, "bob", feed[0].Author.Username)
	assert.Equal(t, []string{"c1", "c2"}, []string{feed[1].Comments[0].ID, feed[1].Comments[1].ID})
	assert.Equal(t, 2, feed[1].CommentCount)

	mine, err := s.ListFeed(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "old", mine[0].ID)
}

func TestSuggestUsers_ExcludesSelfAndFollowed(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	seedUser(t, s, "u3", "carol")
	seedUser(t, s, "u4", "dave")
	require.NoError(t, s.Apply(ctx,
		domain.InsertFollow{Follow: domain.Follow{FollowerID: "u1", FollowingID: "u2"}},
		domain.InsertFollow{Follow: domain.Follow{FollowerID: "u2", FollowingID: "u4"}},
	))

	got, err := s.SuggestUsers(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "dave", got[0].Username)
	assert.Equal(t, 1, got[0].Followers)
	assert.Equal(t, "carol", got[1].Username)
}

func TestMarkNotificationsRead(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "u1", "alice")
	seedUser(t, s, "u2", "bob")
	require.NoError(t, s.Apply(ctx,
		domain.InsertNotification{Notification: domain.Notification{ID: "n1", Type: domain.NotificationFollow, RecipientID: "u1", ActorID: "u2", CreatedAt: t0}},
		domain.InsertNotification{Notification: domain.Notification{ID: "n2", Type: domain.NotificationFollow, RecipientID: "u2", ActorID: "u1", CreatedAt: t0}},
	))

	require.NoError(t, s.Apply(ctx, domain.MarkNotificationsRead{RecipientID: "u1"}))

	inbox, err := s.ListNotifications(ctx, "u1", 10)
	require.NoError(t, err)
	assert.True(t, inbox[0].Read)
	other, err := s.ListNotifications(ctx, "u2", 10)
	require.NoError(t, err)
	assert.False(t, other[0].Read)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().GetPost(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
