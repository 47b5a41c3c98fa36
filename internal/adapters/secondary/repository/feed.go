package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

// snapshotTx : lecture seule, un seul snapshot pour les trois requêtes.
var snapshotTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// ListFeed assemble le feed en 3 requêtes (posts, commentaires, likes)
// au lieu d'une requête par post.
func (r *PostgresRepo) ListFeed(ctx context.Context, authorID string) ([]domain.FeedPost, error) {
	var posts []domain.FeedPost
	err := pgx.BeginTxFunc(ctx, r.db, snapshotTx, func(tx pgx.Tx) error {
		var err error
		if posts, err = listPosts(ctx, tx, authorID); err != nil {
			return err
		}
		if len(posts) == 0 {
			return nil
		}

		ids := make([]string, len(posts))
		index := make(map[string]int, len(posts))
		for i, p := range posts {
			ids[i] = p.ID
			index[p.ID] = i
		}
		if err := attachComments(ctx, tx, ids, posts, index); err != nil {
			return err
		}
		return attachLikes(ctx, tx, ids, posts, index)
	})
	if err != nil {
		return nil, fmt.Errorf("db: list feed: %w", handleError(err))
	}

	for i := range posts {
		posts[i].LikeCount = len(posts[i].LikedBy)
		posts[i].CommentCount = len(posts[i].Comments)
	}
	return posts, nil
}

func listPosts(ctx context.Context, tx pgx.Tx, authorID string) ([]domain.FeedPost, error) {
	q := `
		SELECT p.id, p.author_id, p.content, p.image, p.created_at, p.updated_at,
		       u.id, u.name, u.username, u.image
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE $1::text = '' OR p.author_id = $1
		ORDER BY p.created_at DESC, p.id DESC
	`
	rows, err := tx.Query(ctx, q, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FeedPost
	for rows.Next() {
		var p domain.FeedPost
		err := rows.Scan(
			&p.ID, &p.AuthorID, &p.Content, &p.Image, &p.CreatedAt, &p.UpdatedAt,
			&p.Author.ID, &p.Author.Name, &p.Author.Username, &p.Author.Image,
		)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func attachComments(ctx context.Context, tx pgx.Tx, ids []string, posts []domain.FeedPost, index map[string]int) error {
	q := `
		SELECT c.id, c.post_id, c.author_id, c.content, c.created_at,
		       u.id, u.name, u.username, u.image
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ANY($1)
		ORDER BY c.created_at ASC, c.id ASC
	`
	rows, err := tx.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.FeedComment
		err := rows.Scan(
			&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt,
			&c.Author.ID, &c.Author.Name, &c.Author.Username, &c.Author.Image,
		)
		if err != nil {
			return fmt.Errorf("scan comment: %w", err)
		}
		i := index[c.PostID]
		posts[i].Comments = append(posts[i].Comments, c)
	}
	return rows.Err()
}

func attachLikes(ctx context.Context, tx pgx.Tx, ids []string, posts []domain.FeedPost, index map[string]int) error {
	rows, err := tx.Query(ctx, `SELECT post_id, user_id FROM likes WHERE post_id = ANY($1) ORDER BY created_at, id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var postID, userID string
		if err := rows.Scan(&postID, &userID); err != nil {
			return fmt.Errorf("scan like: %w", err)
		}
		i := index[postID]
		posts[i].LikedBy = append(posts[i].LikedBy, userID)
	}
	return rows.Err()
}
