// Package memstore est un Relationship Store en mémoire. Il applique les
// mêmes contraintes que le schéma Postgres (unicité, clés étrangères,
// cascade) et sérialise les unités atomiques derrière un mutex.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

var (
	_ ports.UserRepository    = (*Store)(nil)
	_ ports.RelationshipStore = (*Store)(nil)
	_ ports.FeedReader        = (*Store)(nil)
)

type Store struct {
	mu sync.Mutex
	st *state
}

func New() *Store {
	return &Store{st: newState()}
}

type likeKey struct{ userID, postID string }

type followKey struct{ followerID, followingID string }

// row garde l'ordre d'insertion pour départager les timestamps égaux.
type row[T any] struct {
	v   T
	seq int64
}

type state struct {
	seq int64

	users        map[string]row[domain.User]
	byExternalID map[string]string
	byUsername   map[string]string
	byEmail      map[string]string

	posts         map[string]row[domain.Post]
	comments      map[string]row[domain.Comment]
	likes         map[likeKey]row[domain.Like]
	follows       map[followKey]row[domain.Follow]
	notifications map[string]row[domain.Notification]
}

func newState() *state {
	return &state{
		users:         map[string]row[domain.User]{},
		byExternalID:  map[string]string{},
		byUsername:    map[string]string{},
		byEmail:       map[string]string{},
		posts:         map[string]row[domain.Post]{},
		comments:      map[string]row[domain.Comment]{},
		likes:         map[likeKey]row[domain.Like]{},
		follows:       map[followKey]row[domain.Follow]{},
		notifications: map[string]row[domain.Notification]{},
	}
}

func (st *state) clone() *state {
	return &state{
		seq:           st.seq,
		users:         maps.Clone(st.users),
		byExternalID:  maps.Clone(st.byExternalID),
		byUsername:    maps.Clone(st.byUsername),
		byEmail:       maps.Clone(st.byEmail),
		posts:         maps.Clone(st.posts),
		comments:      maps.Clone(st.comments),
		likes:         maps.Clone(st.likes),
		follows:       maps.Clone(st.follows),
		notifications: maps.Clone(st.notifications),
	}
}

func stamp[T any](st *state, v T) row[T] {
	st.seq++
	return row[T]{v: v, seq: st.seq}
}

// --- TRANSACTIONS ---

// tx travaille sur une copie de l'état : rien n'est visible tant que fn
// n'a pas réussi (tout ou rien).
func (s *Store) tx(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	s.st = next
	return nil
}

// read donne un accès en lecture à un état cohérent.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) Apply(ctx context.Context, writes ...domain.Write) error {
	return s.tx(ctx, func(st *state) error {
		for _, w := range writes {
			if _, err := st.apply(w); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Toggle(ctx context.Context, remove domain.Write, create ...domain.Write) (bool, error) {
	var on bool
	err := s.tx(ctx, func(st *state) error {
		removed, err := st.apply(remove)
		if err != nil {
			return err
		}
		if removed > 0 {
			on = false
			return nil
		}
		for _, w := range create {
			if _, err := st.apply(w); err != nil {
				return err
			}
		}
		on = true
		return nil
	})
	return on, err
}

// apply renvoie le nombre de lignes touchées.
func (st *state) apply(w domain.Write) (int64, error) {
	switch w := w.(type) {
	case domain.InsertPost:
		if _, ok := st.users[w.Post.AuthorID]; !ok {
			return 0, fmt.Errorf("insert post: %w", domain.ErrUserNotFound)
		}
		if _, dup := st.posts[w.Post.ID]; dup {
			return 0, fmt.Errorf("insert post: %w", domain.ErrConflict)
		}
		st.posts[w.Post.ID] = stamp(st, w.Post)
		return 1, nil

	case domain.DeletePost:
		p, ok := st.posts[w.PostID]
		if !ok || p.v.AuthorID != w.AuthorID {
			return 0, fmt.Errorf("delete post %s: %w", w.PostID, domain.ErrPostNotFound)
		}
		st.deletePostCascade(w.PostID)
		return 1, nil

	case domain.InsertLike:
		if _, ok := st.users[w.Like.UserID]; !ok {
			return 0, fmt.Errorf("insert like: %w", domain.ErrUserNotFound)
		}
		if _, ok := st.posts[w.Like.PostID]; !ok {
			return 0, fmt.Errorf("insert like: %w", domain.ErrPostNotFound)
		}
		k := likeKey{w.Like.UserID, w.Like.PostID}
		if _, dup := st.likes[k]; dup {
			return 0, fmt.Errorf("insert like: %w", domain.ErrConflict)
		}
		st.likes[k] = stamp(st, w.Like)
		return 1, nil

	case domain.DeleteLike:
		k := likeKey{w.UserID, w.PostID}
		if _, ok := st.likes[k]; !ok {
			return 0, nil
		}
		delete(st.likes, k)
		return 1, nil

	case domain.InsertFollow:
		if w.Follow.FollowerID == w.Follow.FollowingID {
			return 0, fmt.Errorf("insert follow: %w", domain.ErrSelfFollow)
		}
		if !st.hasUsers(w.Follow.FollowerID, w.Follow.FollowingID) {
			return 0, fmt.Errorf("insert follow: %w", domain.ErrUserNotFound)
		}
		k := followKey{w.Follow.FollowerID, w.Follow.FollowingID}
		if _, dup := st.follows[k]; dup {
			return 0, fmt.Errorf("insert follow: %w", domain.ErrConflict)
		}
		st.follows[k] = stamp(st, w.Follow)
		return 1, nil

	case domain.DeleteFollow:
		k := followKey{w.FollowerID, w.FollowingID}
		if _, ok := st.follows[k]; !ok {
			return 0, nil
		}
		delete(st.follows, k)
		return 1, nil

	case domain.InsertComment:
		if _, ok := st.users[w.Comment.AuthorID]; !ok {
			return 0, fmt.Errorf("insert comment: %w", domain.ErrUserNotFound)
		}
		if _, ok := st.posts[w.Comment.PostID]; !ok {
			return 0, fmt.Errorf("insert comment: %w", domain.ErrPostNotFound)
		}
		if isBlank(w.Comment.Content) {
			return 0, fmt.Errorf("insert comment: %w", domain.ErrEmptyComment)
		}
		st.comments[w.Comment.ID] = stamp(st, w.Comment)
		return 1, nil

	case domain.InsertNotification:
		n := w.Notification
		if n.RecipientID == n.ActorID {
			return 0, fmt.Errorf("insert notification: self reference: %w", domain.ErrConflict)
		}
		if !st.hasUsers(n.RecipientID, n.ActorID) {
			return 0, fmt.Errorf("insert notification: %w", domain.ErrUserNotFound)
		}
		if n.PostID != "" {
			if _, ok := st.posts[n.PostID]; !ok {
				return 0, fmt.Errorf("insert notification: %w", domain.ErrPostNotFound)
			}
		}
		if n.CommentID != "" {
			if _, ok := st.comments[n.CommentID]; !ok {
				return 0, fmt.Errorf("insert notification: comment %s: %w", n.CommentID, domain.ErrPostNotFound)
			}
		}
		st.notifications[n.ID] = stamp(st, n)
		return 1, nil

	case domain.MarkNotificationsRead:
		only := make(map[string]bool, len(w.IDs))
		for _, id := range w.IDs {
			only[id] = true
		}
		var n int64
		for id, r := range st.notifications {
			if r.v.RecipientID != w.RecipientID || r.v.Read {
				continue
			}
			if len(only) > 0 && !only[id] {
				continue
			}
			r.v.Read = true
			st.notifications[id] = r
			n++
		}
		return n, nil

	default:
		return 0, fmt.Errorf("memstore: unsupported write %T", w)
	}
}

func (st *state) hasUsers(ids ...string) bool {
	for _, id := range ids {
		if _, ok := st.users[id]; !ok {
			return false
		}
	}
	return true
}

// deletePostCascade reproduit ON DELETE CASCADE : commentaires, likes et
// notifications qui référencent le post ou ses commentaires.
func (st *state) deletePostCascade(postID string) {
	delete(st.posts, postID)

	dropped := map[string]bool{}
	for id, c := range st.comments {
		if c.v.PostID == postID {
			dropped[id] = true
			delete(st.comments, id)
		}
	}
	for k := range st.likes {
		if k.postID == postID {
			delete(st.likes, k)
		}
	}
	for id, n := range st.notifications {
		if n.v.PostID == postID || dropped[n.v.CommentID] {
			delete(st.notifications, id)
		}
	}
}
