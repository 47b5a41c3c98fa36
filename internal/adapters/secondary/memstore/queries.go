package memstore

import (
	"cmp"
	"context"
	"slices"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

func (s *Store) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	var out domain.Post
	err := s.read(ctx, func(st *state) error {
		r, ok := st.posts[postID]
		if !ok {
			return domain.ErrPostNotFound
		}
		out = r.v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var ok bool
	err := s.read(ctx, func(st *state) error {
		_, ok = st.follows[followKey{followerID, followingID}]
		return nil
	})
	return ok, err
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, limit int) ([]domain.NotificationView, error) {
	var out []domain.NotificationView
	err := s.read(ctx, func(st *state) error {
		var rows []row[domain.Notification]
		for _, r := range st.notifications {
			if r.v.RecipientID == recipientID {
				rows = append(rows, r)
			}
		}
		slices.SortFunc(rows, func(a, b row[domain.Notification]) int {
			if c := b.v.CreatedAt.Compare(a.v.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.seq, a.seq)
		})
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}

		out = make([]domain.NotificationView, 0, len(rows))
		for _, r := range rows {
			v := domain.NotificationView{Notification: r.v, Actor: st.summary(r.v.ActorID)}
			if p, ok := st.posts[r.v.PostID]; ok {
				v.Post = &domain.PostPreview{ID: p.v.ID, Content: p.v.Content, Image: p.v.Image}
			}
			if c, ok := st.comments[r.v.CommentID]; ok {
				v.Comment = &domain.CommentPreview{ID: c.v.ID, Content: c.v.Content, CreatedAt: c.v.CreatedAt}
			}
			out = append(out, v)
		}
		return nil
	})
	return out, err
}

// SuggestUsers : ni soi-même ni déjà suivi, les plus suivis d'abord.
func (s *Store) SuggestUsers(ctx context.Context, userID string, limit int) ([]domain.UserCard, error) {
	var out []domain.UserCard
	err := s.read(ctx, func(st *state) error {
		for id, r := range st.users {
			if id == userID {
				continue
			}
			if _, followed := st.follows[followKey{userID, id}]; followed {
				continue
			}
			out = append(out, domain.UserCard{UserSummary: r.v.Summary(), Followers: st.followerCount(id)})
		}
		slices.SortFunc(out, func(a, b domain.UserCard) int {
			if c := cmp.Compare(b.Followers, a.Followers); c != 0 {
				return c
			}
			return cmp.Compare(a.Username, b.Username)
		})
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

// ListFeed : posts du plus récent au plus ancien, commentaires en ordre
// chronologique. authorID vide = tous les auteurs.
func (s *Store) ListFeed(ctx context.Context, authorID string) ([]domain.FeedPost, error) {
	var out []domain.FeedPost
	err := s.read(ctx, func(st *state) error {
		var posts []row[domain.Post]
		for _, p := range st.posts {
			if authorID == "" || p.v.AuthorID == authorID {
				posts = append(posts, p)
			}
		}
		slices.SortFunc(posts, func(a, b row[domain.Post]) int {
			if c := b.v.CreatedAt.Compare(a.v.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.seq, a.seq)
		})

		comments := map[string][]row[domain.Comment]{}
		for _, c := range st.comments {
			comments[c.v.PostID] = append(comments[c.v.PostID], c)
		}
		likes := map[string][]row[domain.Like]{}
		for _, l := range st.likes {
			likes[l.v.PostID] = append(likes[l.v.PostID], l)
		}

		out = make([]domain.FeedPost, 0, len(posts))
		for _, p := range posts {
			fp := domain.FeedPost{Post: p.v, Author: st.summary(p.v.AuthorID)}

			cs := comments[p.v.ID]
			slices.SortFunc(cs, func(a, b row[domain.Comment]) int {
				if c := a.v.CreatedAt.Compare(b.v.CreatedAt); c != 0 {
					return c
				}
				return cmp.Compare(a.seq, b.seq)
			})
			for _, c := range cs {
				fp.Comments = append(fp.Comments, domain.FeedComment{Comment: c.v, Author: st.summary(c.v.AuthorID)})
			}

			ls := likes[p.v.ID]
			slices.SortFunc(ls, func(a, b row[domain.Like]) int { return cmp.Compare(a.seq, b.seq) })
			for _, l := range ls {
				fp.LikedBy = append(fp.LikedBy, l.v.UserID)
			}

			fp.LikeCount = len(fp.LikedBy)
			fp.CommentCount = len(fp.Comments)
			out = append(out, fp)
		}
		return nil
	})
	return out, err
}
