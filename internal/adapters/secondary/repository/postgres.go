package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

//go:embed schema.sql
var schemaSQL string

var (
	_ ports.UserRepository    = (*PostgresRepo)(nil)
	_ ports.RelationshipStore = (*PostgresRepo)(nil)
	_ ports.FeedReader        = (*PostgresRepo)(nil)
)

// PostgresRepo est le Relationship Store. Le pool est construit une seule
// fois dans main.go et injecté ici.
type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: pool}
}

// Migrate applique le schéma embarqué (CREATE ... IF NOT EXISTS).
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("db: migrate: %w", handleError(err))
	}
	return nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	return handleError(r.db.Ping(ctx))
}

// --- HELPERS ---

// handleError traduit les codes d'erreur PostgreSQL en erreurs du Domaine.
func handleError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505": // unique_violation
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrConflict)
		case pgErr.Code == "23503": // foreign_key_violation
			if referencesPost(pgErr.ConstraintName) {
				return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrPostNotFound)
			}
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrUserNotFound)
		case pgErr.Code == "23514": // check_violation
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, checkError(pgErr.ConstraintName))
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "57P"):
			// connection_exception / operator_intervention
			return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) ||
		pgconn.Timeout(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		strings.Contains(err.Error(), "closed pool") {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return err
}

func referencesPost(constraint string) bool {
	switch constraint {
	case "comments_post_id_fkey", "likes_post_id_fkey", "notifications_post_id_fkey", "notifications_comment_id_fkey":
		return true
	}
	return false
}

func checkError(constraint string) error {
	switch constraint {
	case "follows_no_self":
		return domain.ErrSelfFollow
	case "comments_content_not_blank":
		return domain.ErrEmptyComment
	case "posts_not_empty":
		return domain.ErrEmptyPost
	default:
		return domain.ErrConflict
	}
}
