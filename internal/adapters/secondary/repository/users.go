package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

// sqlUser est un DTO interne entre la base et le domaine.
type sqlUser struct {
	ID         string
	ExternalID string
	Email      string
	Username   string
	Name       string
	Image      string
	Bio        string
	Location   string
	Website    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const userColumns = `u.id, u.external_id, u.email, u.username, u.name, u.image, u.bio, u.location, u.website, u.created_at, u.updated_at`

func (u *sqlUser) dest() []any {
	return []any{&u.ID, &u.ExternalID, &u.Email, &u.Username, &u.Name, &u.Image, &u.Bio, &u.Location, &u.Website, &u.CreatedAt, &u.UpdatedAt}
}

// UpsertByExternalID : une seule instruction, pas de check-then-insert.
// Le username n'est posé qu'à l'insertion.
func (r *PostgresRepo) UpsertByExternalID(ctx context.Context, user *domain.User) (*domain.User, error) {
	q := `
		INSERT INTO users AS u (id, external_id, email, username, name, image, created_at, updated_at)
		VALUES (@id, @external_id, @email, @username, @name, @image, @created_at, @updated_at)
		ON CONFLICT (external_id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    image = EXCLUDED.image,
		    updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	args := pgx.NamedArgs{
		"id":          user.ID,
		"external_id": user.ExternalID,
		"email":       user.Email,
		"username":    user.Username,
		"name":        user.Name,
		"image":       user.Image,
		"created_at":  user.CreatedAt,
		"updated_at":  user.UpdatedAt,
	}

	var u sqlUser
	if err := r.db.QueryRow(ctx, q, args).Scan(u.dest()...); err != nil {
		return nil, fmt.Errorf("db: upsert user: %w", handleError(err))
	}
	return u.toDomain(), nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`

	var u sqlUser
	if err := r.db.QueryRow(ctx, q, id).Scan(u.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db: get user by id: %w", handleError(err))
	}
	return u.toDomain(), nil
}

func (r *PostgresRepo) GetProfileByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	q := `
		SELECT ` + userColumns + `,
		       (SELECT count(*) FROM follows f WHERE f.following_id = u.id),
		       (SELECT count(*) FROM follows f WHERE f.follower_id = u.id),
		       (SELECT count(*) FROM posts p WHERE p.author_id = u.id)
		FROM users u
		WHERE u.username = $1
	`

	var (
		u       sqlUser
		profile domain.Profile
	)
	dest := append(u.dest(), &profile.Followers, &profile.Following, &profile.Posts)
	if err := r.db.QueryRow(ctx, q, username).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db: get profile: %w", handleError(err))
	}
	profile.User = *u.toDomain()
	return &profile, nil
}

// GetCards conserve l'ordre de ids (classement du graphe).
func (r *PostgresRepo) GetCards(ctx context.Context, ids []string) ([]domain.UserCard, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := `
		SELECT u.id, u.name, u.username, u.image,
		       (SELECT count(*) FROM follows f WHERE f.following_id = u.id)
		FROM users u
		WHERE u.id = ANY($1)
	`
	rows, err := r.db.Query(ctx, q, ids)
	if err != nil {
		return nil, fmt.Errorf("db: get cards: %w", handleError(err))
	}
	byID, err := collectCards(rows)
	if err != nil {
		return nil, err
	}

	out := make([]domain.UserCard, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func collectCards(rows pgx.Rows) (map[string]domain.UserCard, error) {
	defer rows.Close()
	out := map[string]domain.UserCard{}
	for rows.Next() {
		var c domain.UserCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Username, &c.Image, &c.Followers); err != nil {
			return nil, fmt.Errorf("db: scan card: %w", err)
		}
		out[c.ID] = c
	}
	return out, handleError(rows.Err())
}

func (u *sqlUser) toDomain() *domain.User {
	return &domain.User{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Email:      u.Email,
		Username:   u.Username,
		Name:       u.Name,
		Image:      u.Image,
		Bio:        u.Bio,
		Location:   u.Location,
		Website:    u.Website,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
