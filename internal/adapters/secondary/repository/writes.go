package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

// Apply exécute l'unité atomique dans une seule transaction.
func (r *PostgresRepo) Apply(ctx context.Context, writes ...domain.Write) error {
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, w := range writes {
			if _, err := execWrite(ctx, tx, w); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("db: apply %v: %w", domain.WriteKinds(writes), handleError(err))
	}
	return nil
}

// Toggle : DELETE d'abord. Si une ligne part, c'est un "off" ; sinon on
// applique les insertions. Deux toggles concurrents qui voient tous deux
// "absent" se départagent sur la contrainte UNIQUE (23505).
func (r *PostgresRepo) Toggle(ctx context.Context, remove domain.Write, create ...domain.Write) (bool, error) {
	var on bool
	err := pgx.BeginTxFunc(ctx, r.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		removed, err := execWrite(ctx, tx, remove)
		if err != nil {
			return err
		}
		if removed > 0 {
			on = false
			return nil
		}
		for _, w := range create {
			if _, err := execWrite(ctx, tx, w); err != nil {
				return err
			}
		}
		on = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("db: toggle %s: %w", remove.WriteKind(), handleError(err))
	}
	return on, nil
}

// execWrite traduit une écriture en SQL et renvoie le nombre de lignes touchées.
func execWrite(ctx context.Context, tx pgx.Tx, w domain.Write) (int64, error) {
	var (
		q    string
		args pgx.NamedArgs
	)

	switch w := w.(type) {
	case domain.InsertPost:
		q = `INSERT INTO posts (id, author_id, content, image, created_at, updated_at)
		     VALUES (@id, @author_id, @content, @image, @created_at, @updated_at)`
		args = pgx.NamedArgs{
			"id":         w.Post.ID,
			"author_id":  w.Post.AuthorID,
			"content":    w.Post.Content,
			"image":      w.Post.Image,
			"created_at": w.Post.CreatedAt,
			"updated_at": w.Post.UpdatedAt,
		}

	case domain.DeletePost:
		// La garde sur author_id ferme la course avec un changement d'auteur
		// ou une suppression concurrente.
		tag, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, w.PostID, w.AuthorID)
		if err != nil {
			return 0, err
		}
		if tag.RowsAffected() == 0 {
			return 0, fmt.Errorf("delete post %s: %w", w.PostID, domain.ErrPostNotFound)
		}
		return tag.RowsAffected(), nil

	case domain.InsertLike:
		q = `INSERT INTO likes (id, user_id, post_id, created_at) VALUES (@id, @user_id, @post_id, @created_at)`
		args = pgx.NamedArgs{
			"id":         w.Like.ID,
			"user_id":    w.Like.UserID,
			"post_id":    w.Like.PostID,
			"created_at": w.Like.CreatedAt,
		}

	case domain.DeleteLike:
		q = `DELETE FROM likes WHERE user_id = @user_id AND post_id = @post_id`
		args = pgx.NamedArgs{"user_id": w.UserID, "post_id": w.PostID}

	case domain.InsertFollow:
		q = `INSERT INTO follows (follower_id, following_id, created_at) VALUES (@follower_id, @following_id, @created_at)`
		args = pgx.NamedArgs{
			"follower_id":  w.Follow.FollowerID,
			"following_id": w.Follow.FollowingID,
			"created_at":   w.Follow.CreatedAt,
		}

	case domain.DeleteFollow:
		q = `DELETE FROM follows WHERE follower_id = @follower_id AND following_id = @following_id`
		args = pgx.NamedArgs{"follower_id": w.FollowerID, "following_id": w.FollowingID}

	case domain.InsertComment:
		q = `INSERT INTO comments (id, post_id, author_id, content, created_at)
		     VALUES (@id, @post_id, @author_id, @content, @created_at)`
		args = pgx.NamedArgs{
			"id":         w.Comment.ID,
			"post_id":    w.Comment.PostID,
			"author_id":  w.Comment.AuthorID,
			"content":    w.Comment.Content,
			"created_at": w.Comment.CreatedAt,
		}

	case domain.InsertNotification:
		q = `INSERT INTO notifications (id, type, user_id, creator_id, post_id, comment_id, read, created_at)
		     VALUES (@id, @type, @user_id, @creator_id, NULLIF(@post_id, ''), NULLIF(@comment_id, ''), false, @created_at)`
		n := w.Notification
		args = pgx.NamedArgs{
			"id":         n.ID,
			"type":       string(n.Type),
			"user_id":    n.RecipientID,
			"creator_id": n.ActorID,
			"post_id":    n.PostID,
			"comment_id": n.CommentID,
			"created_at": n.CreatedAt,
		}

	case domain.MarkNotificationsRead:
		if len(w.IDs) == 0 {
			q = `UPDATE notifications SET read = true WHERE user_id = @user_id AND NOT read`
			args = pgx.NamedArgs{"user_id": w.RecipientID}
		} else {
			q = `UPDATE notifications SET read = true WHERE user_id = @user_id AND id = ANY(@ids) AND NOT read`
			args = pgx.NamedArgs{"user_id": w.RecipientID, "ids": w.IDs}
		}

	default:
		return 0, fmt.Errorf("unsupported write %T", w)
	}

	tag, err := tx.Exec(ctx, q, args)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
