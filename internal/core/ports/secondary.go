package ports

import (
	"context"
	"errors"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

// --- PERSISTANCE (Relationship Store) ---

// UserRepository gère la table users.
type UserRepository interface {
	// UpsertByExternalID : INSERT ... ON CONFLICT (external_id) DO UPDATE.
	// Jamais de check-then-insert. Renvoie la ligne stockée (ID stable).
	UpsertByExternalID(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetProfileByUsername(ctx context.Context, username string) (*domain.Profile, error)
	// GetCards conserve l'ordre des ids ; les ids inconnus sont ignorés.
	GetCards(ctx context.Context, ids []string) ([]domain.UserCard, error)
}

// RelationshipStore applique les unités atomiques assemblées par le service.
type RelationshipStore interface {
	// Apply exécute toutes les écritures dans UNE transaction.
	Apply(ctx context.Context, writes ...domain.Write) error
	// Toggle : si `remove` supprime une ligne -> false, sinon applique `create`
	// -> true. Le tout dans une seule transaction.
	Toggle(ctx context.Context, remove domain.Write, create ...domain.Write) (bool, error)

	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]domain.NotificationView, error)
	// SuggestUsers : utilisateurs ni soi-même ni déjà suivis.
	SuggestUsers(ctx context.Context, userID string, limit int) ([]domain.UserCard, error)
}

// FeedReader lit un snapshot cohérent (données commitées uniquement).
// authorID vide = tous les posts.
type FeedReader interface {
	ListFeed(ctx context.Context, authorID string) ([]domain.FeedPost, error)
}

// --- CACHE ---

// FeedCache est un cache read-through versionné du feed global.
type FeedCache interface {
	// Get renvoie la version courante, et les posts si présents pour cette version.
	Get(ctx context.Context) (posts []domain.FeedPost, version int64, hit bool, err error)
	Put(ctx context.Context, version int64, posts []domain.FeedPost) error
}

// CacheInvalidator est le hook vers la couche de rendu externe.
// Appelé APRÈS commit, jamais dans la transaction.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, paths ...string) error
}

// Invalidators diffuse l'invalidation à plusieurs cibles (Redis + NATS).
type Invalidators []CacheInvalidator

func (l Invalidators) Invalidate(ctx context.Context, paths ...string) error {
	var errs []error
	for _, inv := range l {
		if inv == nil {
			continue
		}
		if err := inv.Invalidate(ctx, paths...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// --- MESSAGERIE (BROKER) ---

// EventPublisher notifie les autres services (best effort, après commit).
type EventPublisher interface {
	Publish(ctx context.Context, evt domain.Event) error
}

// --- GRAPHE (Neo4j) ---

type GraphRepository interface {
	EnsureSchema(ctx context.Context) error
	CreateRelation(ctx context.Context, actorID, targetID string) error
	DeleteRelation(ctx context.Context, actorID, targetID string) error
	// SuggestFollows : amis d'amis non suivis, triés par nombre de chemins.
	SuggestFollows(ctx context.Context, userID string, limit int) ([]string, error)
}

// --- SÉCURITÉ ---

// PrincipalVerifier valide le token du fournisseur d'identité externe.
type PrincipalVerifier interface {
	Verify(token string) (*domain.Principal, error)
}
