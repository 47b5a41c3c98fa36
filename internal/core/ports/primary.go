package ports

import (
	"context"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

// --- PORTS PRIMAIRES (Driving) ---
// Ce que l'hexagone expose aux adapters gRPC / HTTP / NATS.

// IdentityService mappe un principal externe vers l'utilisateur local.
type IdentityService interface {
	// ResolveLocalUser fait l'upsert idempotent et renvoie l'ID local.
	ResolveLocalUser(ctx context.Context, principal *domain.Principal) (string, error)
	// Authenticate vérifie le bearer token puis résout le principal.
	Authenticate(ctx context.Context, token string) (string, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetProfile(ctx context.Context, username string) (*domain.Profile, error)
}

// EngagementService : toutes les mutations du graphe social.
// Aucune méthode ne renvoie d'erreur Go, tout passe par domain.Result.
// Un userID vide = appelant non authentifié = no-op silencieux.
type EngagementService interface {
	CreatePost(ctx context.Context, userID, content, image string) domain.Result[*domain.Post]
	DeletePost(ctx context.Context, userID, postID string) domain.Result[struct{}]
	ToggleLike(ctx context.Context, userID, postID string) domain.Result[bool]
	ToggleFollow(ctx context.Context, userID, targetUserID string) domain.Result[bool]
	CreateComment(ctx context.Context, userID, postID, content string) domain.Result[*domain.Comment]

	IsFollowing(ctx context.Context, userID, targetUserID string) domain.Result[bool]
	ListNotifications(ctx context.Context, userID string) domain.Result[[]domain.NotificationView]
	MarkNotificationsRead(ctx context.Context, userID string, notificationIDs []string) domain.Result[struct{}]
	SuggestUsers(ctx context.Context, userID string, limit int) domain.Result[[]domain.UserCard]
}

// FeedService est le chemin de lecture. Ici les erreurs remontent (hard fail).
type FeedService interface {
	ListPosts(ctx context.Context) ([]domain.FeedPost, error)
	ListPostsByAuthor(ctx context.Context, username string) ([]domain.FeedPost, error)
}

// GraphProjectionService alimente la projection Neo4j depuis les événements.
type GraphProjectionService interface {
	Project(ctx context.Context, evt domain.Event) error
}
