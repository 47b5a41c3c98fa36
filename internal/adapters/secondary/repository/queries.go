package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

func (r *PostgresRepo) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	q := `SELECT id, author_id, content, image, created_at, updated_at FROM posts WHERE id = $1`

	var p domain.Post
	err := r.db.QueryRow(ctx, q, postID).Scan(&p.ID, &p.AuthorID, &p.Content, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("db: get post: %w", handleError(err))
	}
	return &p, nil
}

func (r *PostgresRepo) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	q := `SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND following_id = $2)`

	var ok bool
	if err := r.db.QueryRow(ctx, q, followerID, followingID).Scan(&ok); err != nil {
		return false, fmt.Errorf("db: is following: %w", handleError(err))
	}
	return ok, nil
}

// ListNotifications : inbox du destinataire, plus récentes d'abord.
// limit <= 0 = pas de limite (LIMIT NULL).
func (r *PostgresRepo) ListNotifications(ctx context.Context, recipientID string, limit int) ([]domain.NotificationView, error) {
	q := `
		SELECT n.id, n.type, n.user_id, n.creator_id, COALESCE(n.post_id, ''), COALESCE(n.comment_id, ''),
		       n.read, n.created_at,
		       a.id, a.name, a.username, a.image,
		       p.id, p.content, p.image,
		       c.id, c.content, c.created_at
		FROM notifications n
		JOIN users a ON a.id = n.creator_id
		LEFT JOIN posts p ON p.id = n.post_id
		LEFT JOIN comments c ON c.id = n.comment_id
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT NULLIF($2::int, 0)
	`
	if limit < 0 {
		limit = 0
	}

	rows, err := r.db.Query(ctx, q, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("db: list notifications: %w", handleError(err))
	}
	defer rows.Close()

	var out []domain.NotificationView
	for rows.Next() {
		var (
			v                      domain.NotificationView
			typ                    string
			postID, postContent    *string
			postImage              *string
			commentID, commentText *string
			commentAt              *time.Time
		)
		err := rows.Scan(
			&v.ID, &typ, &v.RecipientID, &v.ActorID, &v.PostID, &v.CommentID,
			&v.Read, &v.CreatedAt,
			&v.Actor.ID, &v.Actor.Name, &v.Actor.Username, &v.Actor.Image,
			&postID, &postContent, &postImage,
			&commentID, &commentText, &commentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("db: scan notification: %w", err)
		}
		v.Type = domain.NotificationType(typ)
		if postID != nil {
			v.Post = &domain.PostPreview{ID: *postID, Content: deref(postContent), Image: deref(postImage)}
		}
		if commentID != nil {
			v.Comment = &domain.CommentPreview{ID: *commentID, Content: deref(commentText)}
			if commentAt != nil {
				v.Comment.CreatedAt = *commentAt
			}
		}
		out = append(out, v)
	}
	return out, handleError(rows.Err())
}

// SuggestUsers : ni soi-même ni déjà suivi, les plus suivis d'abord.
func (r *PostgresRepo) SuggestUsers(ctx context.Context, userID string, limit int) ([]domain.UserCard, error) {
	q := `
		SELECT u.id, u.name, u.username, u.image,
		       (SELECT count(*) FROM follows f WHERE f.following_id = u.id) AS followers
		FROM users u
		WHERE u.id <> $1
		  AND NOT EXISTS (SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.following_id = u.id)
		ORDER BY followers DESC, u.username ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db: suggest users: %w", handleError(err))
	}
	defer rows.Close()

	var out []domain.UserCard
	for rows.Next() {
		var c domain.UserCard
		if err := rows.Scan(&c.ID, &c.Name, &c.Username, &c.Image, &c.Followers); err != nil {
			return nil, fmt.Errorf("db: scan suggestion: %w", err)
		}
		out = append(out, c)
	}
	return out, handleError(rows.Err())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
