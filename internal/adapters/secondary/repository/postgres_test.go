package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/services"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/testhelpers"
)

func newTestRepo(t *testing.T) *PostgresRepo {
	t.Helper()
	dsn := testhelpers.StartPostgres(t)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewPostgresRepo(pool)
	require.NoError(t, repo.Migrate(ctx))
	require.NoError(t, repo.Migrate(ctx), "schema must be idempotent")
	return repo
}

func insertUser(t *testing.T, repo *PostgresRepo, username string) string {
	t.Helper()
	now := time.Now().UTC()
	u, err := repo.UpsertByExternalID(context.Background(), &domain.User{
		ID:         uuid.NewString(),
		ExternalID: "ext_" + username,
		Email:      username + "@example.com",
		Username:   username,
		Name:       username,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	return u.ID
}

func insertPost(t *testing.T, repo *PostgresRepo, authorID, content string, at time.Time) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, repo.Apply(context.Background(), domain.InsertPost{Post: domain.Post{
		ID: id, AuthorID: authorID, Content: content, CreatedAt: at, UpdatedAt: at,
	}}))
	return id
}

func TestPostgresRepo(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	alice := insertUser(t, repo, "alice")
	bob := insertUser(t, repo, "bob")

	t.Run("upsert keeps id and username", func(t *testing.T) {
		u, err := repo.UpsertByExternalID(ctx, &domain.User{
			ID:         uuid.NewString(),
			ExternalID: "ext_alice",
			Email:      "alice@example.com",
			Username:   "renamed",
			Name:       "Alice Liddell",
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		require.NoError(t, err)
		assert.Equal(t, alice, u.ID)
		assert.Equal(t, "alice", u.Username)
		assert.Equal(t, "Alice Liddell", u.Name)

		_, err = repo.UpsertByExternalID(ctx, &domain.User{
			ID: uuid.NewString(), ExternalID: "ext_other", Email: "other@example.com", Username: "bob", Name: "bob",
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("constraints map to domain errors", func(t *testing.T) {
		post := insertPost(t, repo, alice, "constraints", now)
		like := domain.InsertLike{Like: domain.Like{ID: uuid.NewString(), UserID: bob, PostID: post, CreatedAt: now}}
		require.NoError(t, repo.Apply(ctx, like))

		dup := domain.InsertLike{Like: domain.Like{ID: uuid.NewString(), UserID: bob, PostID: post, CreatedAt: now}}
		assert.ErrorIs(t, repo.Apply(ctx, dup), domain.ErrConflict)

		ghostPost := domain.InsertLike{Like: domain.Like{ID: uuid.NewString(), UserID: bob, PostID: uuid.NewString(), CreatedAt: now}}
		assert.ErrorIs(t, repo.Apply(ctx, ghostPost), domain.ErrPostNotFound)

		ghostUser := domain.InsertFollow{Follow: domain.Follow{FollowerID: alice, FollowingID: uuid.NewString(), CreatedAt: now}}
		assert.ErrorIs(t, repo.Apply(ctx, ghostUser), domain.ErrUserNotFound)

		self := domain.InsertFollow{Follow: domain.Follow{FollowerID: alice, FollowingID: alice, CreatedAt: now}}
		assert.ErrorIs(t, repo.Apply(ctx, self), domain.ErrSelfFollow)
	})

	t.Run("atomic unit rolls back", func(t *testing.T) {
		post := insertPost(t, repo, alice, "rollback", now)
		commentID := uuid.NewString()
		err := repo.Apply(ctx,
			domain.InsertComment{Comment: domain.Comment{ID: commentID, PostID: post, AuthorID: bob, Content: "hi", CreatedAt: now}},
			domain.InsertNotification{Notification: domain.Notification{
				ID: uuid.NewString(), Type: domain.NotificationComment, RecipientID: bob, ActorID: bob, PostID: post, CommentID: commentID, CreatedAt: now,
			}},
		)
		require.Error(t, err)

		feed, err := repo.ListFeed(ctx, alice)
		require.NoError(t, err)
		for _, p := range feed {
			if p.ID == post {
				assert.Empty(t, p.Comments)
			}
		}
	})

	t.Run("toggle", func(t *testing.T) {
		remove := domain.DeleteFollow{FollowerID: bob, FollowingID: alice}
		create := domain.InsertFollow{Follow: domain.Follow{FollowerID: bob, FollowingID: alice, CreatedAt: now}}

		on, err := repo.Toggle(ctx, remove, create)
		require.NoError(t, err)
		assert.True(t, on)
		following, err := repo.IsFollowing(ctx, bob, alice)
		require.NoError(t, err)
		assert.True(t, following)

		on, err = repo.Toggle(ctx, remove, create)
		require.NoError(t, err)
		assert.False(t, on)
	})

	t.Run("delete post cascades", func(t *testing.T) {
		post := insertPost(t, repo, alice, "doomed", now)
		commentID := uuid.NewString()
		require.NoError(t, repo.Apply(ctx,
			domain.InsertComment{Comment: domain.Comment{ID: commentID, PostID: post, AuthorID: bob, Content: "rip", CreatedAt: now}},
			domain.InsertNotification{Notification: domain.Notification{
				ID: uuid.NewString(), Type: domain.NotificationComment, RecipientID: alice, ActorID: bob, PostID: post, CommentID: commentID, CreatedAt: now,
			}},
			domain.InsertLike{Like: domain.Like{ID: uuid.NewString(), UserID: bob, PostID: post, CreatedAt: now}},
		))

		assert.ErrorIs(t, repo.Apply(ctx, domain.DeletePost{PostID: post, AuthorID: bob}), domain.ErrPostNotFound)
		require.NoError(t, repo.Apply(ctx, domain.DeletePost{PostID: post, AuthorID: alice}))

		_, err := repo.GetPost(ctx, post)
		assert.ErrorIs(t, err, domain.ErrPostNotFound)

		inbox, err := repo.ListNotifications(ctx, alice, 0)
		require.NoError(t, err)
		for _, n := range inbox {
			assert.NotEqual(t, post, n.PostID)
		}
	})

	t.Run("feed snapshot", func(t *testing.T) {
		carol := insertUser(t, repo, "carol")
		older := insertPost(t, repo, carol, "older", now.Add(time.Hour))
		newer := insertPost(t, repo, carol, "newer", now.Add(2*time.Hour))
		require.NoError(t, repo.Apply(ctx,
			domain.InsertComment{Comment: domain.Comment{ID: uuid.NewString(), PostID: older, AuthorID: bob, Content: "2nd", CreatedAt: now.Add(3 * time.Hour)}},
			domain.InsertComment{Comment: domain.Comment{ID: uuid.NewString(), PostID: older, AuthorID: alice, Content: "1st", CreatedAt: now.Add(150 * time.Minute)}},
			domain.InsertLike{Like: domain.Like{ID: uuid.NewString(), UserID: alice, PostID: older, CreatedAt: now}},
		))

		feed, err := repo.ListFeed(ctx, carol)
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, newer, feed[0].ID)
		assert.Equal(t, "carol", feed[0].Author.Username)
		assert.Equal(t, older, feed[1].ID)
		assert.Equal(t, "1st", feed[1].Comments[0].Content)
		assert.Equal(t, "alice", feed[1].Comments[0].Author.Username)
		assert.Equal(t, []string{alice}, feed[1].LikedBy)
		assert.Equal(t, 2, feed[1].CommentCount)

		profile, err := repo.GetProfileByUsername(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, 2, profile.Posts)
	})

	t.Run("suggestions and cards", func(t *testing.T) {
		cards, err := repo.SuggestUsers(ctx, bob, 10)
		require.NoError(t, err)
		for _, c := range cards {
			assert.NotEqual(t, bob, c.ID)
		}

		ordered, err := repo.GetCards(ctx, []string{bob, uuid.NewString(), alice})
		require.NoError(t, err)
		require.Len(t, ordered, 2)
		assert.Equal(t, bob, ordered[0].ID)
		assert.Equal(t, alice, ordered[1].ID)
	})
}

func TestPostgresRepo_ConcurrentToggleKeepsOneLike(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := insertUser(t, repo, "alice")
	bob := insertUser(t, repo, "bob")
	post := insertPost(t, repo, alice, "race", time.Now().UTC())

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Toggle(ctx,
				domain.DeleteLike{UserID: bob, PostID: post},
				domain.InsertLike{Like: domain.Like{ID: uuid.NewString(), UserID: bob, PostID: post, CreatedAt: time.Now().UTC()}},
			)
			if err != nil && !errors.Is(err, domain.ErrConflict) {
				t.Errorf("unexpected toggle error: %v", err)
			}
		}()
	}
	wg.Wait()

	feed, err := repo.ListFeed(ctx, alice)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.LessOrEqual(t, feed[0].LikeCount, 1)
}

func TestPostgresRepo_ConcurrentFirstContactResolvesOneUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	identity := services.NewIdentityService(repo, nil)
	principal := &domain.Principal{ExternalID: "ext_nina", Emails: []string{"nina@example.com"}, GivenName: "Nina"}

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := identity.ResolveLocalUser(ctx, principal)
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	profile, err := repo.GetProfileByUsername(ctx, "nina")
	require.NoError(t, err)
	for _, id := range ids {
		assert.Equal(t, profile.ID, id)
	}
}
