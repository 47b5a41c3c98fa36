package memstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

// UpsertByExternalID : même sémantique que l'INSERT ... ON CONFLICT Postgres.
// L'ID et le username existants sont conservés.
func (s *Store) UpsertByExternalID(ctx context.Context, u *domain.User) (*domain.User, error) {
	var out domain.User
	err := s.tx(ctx, func(st *state) error {
		if id, ok := st.byExternalID[u.ExternalID]; ok {
			cur := st.users[id]
			if other, taken := st.byEmail[u.Email]; taken && other != id {
				return fmt.Errorf("upsert user: email: %w", domain.ErrConflict)
			}
			delete(st.byEmail, cur.v.Email)
			cur.v.Email = u.Email
			cur.v.Name = u.Name
			cur.v.Image = u.Image
			cur.v.UpdatedAt = u.UpdatedAt
			st.users[id] = cur
			st.byEmail[cur.v.Email] = id
			out = cur.v
			return nil
		}

		if _, taken := st.byUsername[u.Username]; taken {
			return fmt.Errorf("upsert user: username %q: %w", u.Username, domain.ErrConflict)
		}
		if _, taken := st.byEmail[u.Email]; taken {
			return fmt.Errorf("upsert user: email: %w", domain.ErrConflict)
		}
		st.users[u.ID] = stamp(st, *u)
		st.byExternalID[u.ExternalID] = u.ID
		st.byUsername[u.Username] = u.ID
		st.byEmail[u.Email] = u.ID
		out = *u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out domain.User
	err := s.read(ctx, func(st *state) error {
		r, ok := st.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		out = r.v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetProfileByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	var out domain.Profile
	err := s.read(ctx, func(st *state) error {
		id, ok := st.byUsername[username]
		if !ok {
			return domain.ErrUserNotFound
		}
		out.User = st.users[id].v
		for k := range st.follows {
			if k.followingID == id {
				out.Followers++
			}
			if k.followerID == id {
				out.Following++
			}
		}
		for _, p := range st.posts {
			if p.v.AuthorID == id {
				out.Posts++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) GetCards(ctx context.Context, ids []string) ([]domain.UserCard, error) {
	var out []domain.UserCard
	err := s.read(ctx, func(st *state) error {
		for _, id := range ids {
			r, ok := st.users[id]
			if !ok {
				continue
			}
			out = append(out, domain.UserCard{UserSummary: r.v.Summary(), Followers: st.followerCount(id)})
		}
		return nil
	})
	return out, err
}

func (st *state) followerCount(userID string) int {
	n := 0
	for k := range st.follows {
		if k.followingID == userID {
			n++
		}
	}
	return n
}

func (st *state) summary(userID string) domain.UserSummary {
	r, ok := st.users[userID]
	if !ok {
		return domain.UserSummary{ID: userID}
	}
	return r.v.Summary()
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
