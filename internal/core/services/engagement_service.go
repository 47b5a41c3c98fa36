package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

const (
	defaultSuggestions   = 3
	notificationPageSize = 50
)

// Chemins invalidés côté rendu après une mutation.
const (
	pathHome          = "/"
	pathNotifications = "/notifications"
	pathProfilePrefix = "/profile/"
)

// EngagementService implémente ports.EngagementService.
// Chaque opération : validation -> liste d'écritures -> une transaction ->
// effets de bord (cache, events) APRÈS le commit.
type EngagementService struct {
	store       ports.RelationshipStore
	users       ports.UserRepository
	invalidator ports.CacheInvalidator
	publisher   ports.EventPublisher
	graph       ports.GraphRepository
	now         func() time.Time
	newID       func() string
}

func NewEngagementService(
	store ports.RelationshipStore,
	users ports.UserRepository,
	invalidator ports.CacheInvalidator,
	publisher ports.EventPublisher,
	opts ...Option,
) *EngagementService {
	o := defaultOptions(opts)
	return &EngagementService{
		store:       store,
		users:       users,
		invalidator: invalidator,
		publisher:   publisher,
		graph:       o.graph,
		now:         o.now,
		newID:       o.newID,
	}
}

// --- POSTS ---

func (s *EngagementService) CreatePost(ctx context.Context, userID, content, image string) domain.Result[*domain.Post] {
	const op = "CreatePost"
	if userID == "" {
		return unauthenticated[*domain.Post](ctx, op)
	}

	post, err := domain.NewPost(s.newID(), userID, content, image, s.now())
	if err != nil {
		return failure[*domain.Post](ctx, op, err, "Failed to create post")
	}
	if err := s.store.Apply(ctx, domain.InsertPost{Post: *post}); err != nil {
		return failure[*domain.Post](ctx, op, err, "Failed to create post")
	}

	s.afterCommit(ctx, []string{pathHome, s.profilePath(ctx, userID)}, domain.Event{
		Type:    domain.EventPostCreated,
		ActorID: userID,
		PostID:  post.ID,
	})
	return domain.Ok(post)
}

func (s *EngagementService) DeletePost(ctx context.Context, userID, postID string) domain.Result[struct{}] {
	const op = "DeletePost"
	if userID == "" {
		return unauthenticated[struct{}](ctx, op)
	}

	// 1. Le post doit exister et appartenir à l'appelant
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return failure[struct{}](ctx, op, err, "Failed to delete post")
	}
	if post.AuthorID != userID {
		return failure[struct{}](ctx, op, domain.ErrNotYourPost, "Failed to delete post")
	}

	// 2. Suppression (cascade sur comments / likes / notifications)
	if err := s.store.Apply(ctx, domain.DeletePost{PostID: postID, AuthorID: userID}); err != nil {
		return failure[struct{}](ctx, op, err, "Failed to delete post")
	}

	s.afterCommit(ctx, []string{pathHome, s.profilePath(ctx, userID)}, domain.Event{
		Type:    domain.EventPostDeleted,
		ActorID: userID,
		PostID:  postID,
	})
	return domain.Ok(struct{}{})
}

// --- LIKES ---

func (s *EngagementService) ToggleLike(ctx context.Context, userID, postID string) domain.Result[bool] {
	const op = "ToggleLike"
	if userID == "" {
		return unauthenticated[bool](ctx, op)
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return failure[bool](ctx, op, err, "Error toggling like")
	}

	// Unité atomique côté "création" : like + notification éventuelle
	now := s.now()
	create := []domain.Write{domain.InsertLike{Like: domain.Like{
		ID:        s.newID(),
		UserID:    userID,
		PostID:    postID,
		CreatedAt: now.UTC(),
	}}}
	notify, notified := domain.EmitNotification(domain.EngagementEvent{
		Type:        domain.NotificationLike,
		ActorID:     userID,
		RecipientID: post.AuthorID,
		PostID:      postID,
	}, s.newID(), now)
	if notified {
		create = append(create, notify)
	}

	liked, err := s.store.Toggle(ctx, domain.DeleteLike{UserID: userID, PostID: postID}, create...)
	if errors.Is(err, domain.ErrConflict) {
		// Course perdue contre un like concurrent : l'état voulu est atteint.
		slog.DebugContext(ctx, "like already present", "op", op, "user_id", userID, "post_id", postID)
		return domain.Ok(true)
	}
	if err != nil {
		return failure[bool](ctx, op, err, "Error toggling like")
	}

	evt := domain.Event{Type: domain.EventLikeDeleted, ActorID: userID, TargetUserID: post.AuthorID, PostID: postID}
	paths := []string{pathHome}
	if liked {
		evt.Type = domain.EventLikeCreated
		if notified {
			paths = append(paths, pathNotifications)
		}
	}
	s.afterCommit(ctx, paths, evt)
	return domain.Ok(liked)
}

// --- FOLLOWS ---

func (s *EngagementService) ToggleFollow(ctx context.Context, userID, targetUserID string) domain.Result[bool] {
	const op = "ToggleFollow"
	if userID == "" {
		return unauthenticated[bool](ctx, op)
	}
	if targetUserID == "" {
		return failure[bool](ctx, op, domain.ErrUserNotFound, "Error toggling follow")
	}

	now := s.now()
	follow, err := domain.NewFollow(userID, targetUserID, now)
	if err != nil {
		return failure[bool](ctx, op, err, "Error toggling follow")
	}
	create := []domain.Write{domain.InsertFollow{Follow: *follow}}
	if w, ok := domain.EmitNotification(domain.EngagementEvent{
		Type:        domain.NotificationFollow,
		ActorID:     userID,
		RecipientID: targetUserID,
	}, s.newID(), now); ok {
		create = append(create, w)
	}

	// La cible inexistante est rejetée par la clé étrangère (ErrUserNotFound).
	following, err := s.store.Toggle(ctx, domain.DeleteFollow{FollowerID: userID, FollowingID: targetUserID}, create...)
	if errors.Is(err, domain.ErrConflict) {
		slog.DebugContext(ctx, "follow already present", "op", op, "user_id", userID, "target_id", targetUserID)
		return domain.Ok(true)
	}
	if err != nil {
		return failure[bool](ctx, op, err, "Error toggling follow")
	}

	evt := domain.Event{Type: domain.EventFollowDeleted, ActorID: userID, TargetUserID: targetUserID}
	paths := []string{pathHome, s.profilePath(ctx, targetUserID)}
	if following {
		evt.Type = domain.EventFollowCreated
		paths = append(paths, pathNotifications)
	}
	s.afterCommit(ctx, paths, evt)
	return domain.Ok(following)
}

func (s *EngagementService) IsFollowing(ctx context.Context, userID, targetUserID string) domain.Result[bool] {
	const op = "IsFollowing"
	if userID == "" {
		return unauthenticated[bool](ctx, op)
	}
	ok, err := s.store.IsFollowing(ctx, userID, targetUserID)
	if err != nil {
		return failure[bool](ctx, op, err, "Error checking follow status")
	}
	return domain.Ok(ok)
}

// SuggestUsers : via le graphe si disponible, sinon via le store.
func (s *EngagementService) SuggestUsers(ctx context.Context, userID string, limit int) domain.Result[[]domain.UserCard] {
	const op = "SuggestUsers"
	if userID == "" {
		return unauthenticated[[]domain.UserCard](ctx, op)
	}
	if limit <= 0 {
		limit = defaultSuggestions
	}

	// 1. Graphe d'abord (amis d'amis), complété par le store
	var cards []domain.UserCard
	if s.graph != nil {
		cards = s.suggestFromGraph(ctx, userID, limit)
		if len(cards) >= limit {
			return domain.Ok(cards[:limit])
		}
	}

	fill, err := s.store.SuggestUsers(ctx, userID, limit+len(cards))
	if err != nil {
		if len(cards) > 0 {
			slog.WarnContext(ctx, "⚠️ Store suggestions unavailable, serving graph only", "error", err)
			return domain.Ok(cards)
		}
		return failure[[]domain.UserCard](ctx, op, err, "Error fetching suggestions")
	}
	return domain.Ok(topUpCards(cards, fill, limit))
}

// suggestFromGraph renvoie nil si le graphe est absent, vide ou en panne.
func (s *EngagementService) suggestFromGraph(ctx context.Context, userID string, limit int) []domain.UserCard {
	ids, err := s.graph.SuggestFollows(ctx, userID, limit)
	if err != nil {
		slog.WarnContext(ctx, "⚠️ Graph suggestions unavailable, falling back to store", "error", err)
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	cards, err := s.users.GetCards(ctx, ids)
	if err != nil {
		slog.WarnContext(ctx, "⚠️ Failed to load graph suggestion cards", "error", err)
		return nil
	}
	return cards
}

// topUpCards complète cards avec fill jusqu'à limit, sans doublon.
func topUpCards(cards, fill []domain.UserCard, limit int) []domain.UserCard {
	seen := make(map[string]struct{}, len(cards))
	for _, c := range cards {
		seen[c.ID] = struct{}{}
	}
	for _, c := range fill {
		if len(cards) >= limit {
			break
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		cards = append(cards, c)
	}
	return cards
}

// --- COMMENTS ---

func (s *EngagementService) CreateComment(ctx context.Context, userID, postID, content string) domain.Result[*domain.Comment] {
	const op = "CreateComment"
	if userID == "" {
		return unauthenticated[*domain.Comment](ctx, op)
	}

	// 1. Validation avant toute écriture
	now := s.now()
	comment, err := domain.NewComment(s.newID(), postID, userID, content, now)
	if err != nil {
		return failure[*domain.Comment](ctx, op, err, "Failed to create comment")
	}

	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return failure[*domain.Comment](ctx, op, err, "Failed to create comment")
	}

	// 2. Commentaire + notification : tout ou rien
	writes := []domain.Write{domain.InsertComment{Comment: *comment}}
	notify, notified := domain.EmitNotification(domain.EngagementEvent{
		Type:        domain.NotificationComment,
		ActorID:     userID,
		RecipientID: post.AuthorID,
		PostID:      postID,
		CommentID:   comment.ID,
	}, s.newID(), now)
	if notified {
		writes = append(writes, notify)
	}
	if err := s.store.Apply(ctx, writes...); err != nil {
		return failure[*domain.Comment](ctx, op, err, "Failed to create comment")
	}

	paths := []string{pathHome}
	if notified {
		paths = append(paths, pathNotifications)
	}
	s.afterCommit(ctx, paths, domain.Event{
		Type:         domain.EventCommentCreated,
		ActorID:      userID,
		TargetUserID: post.AuthorID,
		PostID:       postID,
		CommentID:    comment.ID,
	})
	return domain.Ok(comment)
}

// --- NOTIFICATIONS ---

func (s *EngagementService) ListNotifications(ctx context.Context, userID string) domain.Result[[]domain.NotificationView] {
	const op = "ListNotifications"
	if userID == "" {
		return unauthenticated[[]domain.NotificationView](ctx, op)
	}
	views, err := s.store.ListNotifications(ctx, userID, notificationPageSize)
	if err != nil {
		return failure[[]domain.NotificationView](ctx, op, err, "Failed to fetch notifications")
	}
	return domain.Ok(views)
}

func (s *EngagementService) MarkNotificationsRead(ctx context.Context, userID string, notificationIDs []string) domain.Result[struct{}] {
	const op = "MarkNotificationsRead"
	if userID == "" {
		return unauthenticated[struct{}](ctx, op)
	}
	if err := s.store.Apply(ctx, domain.MarkNotificationsRead{RecipientID: userID, IDs: notificationIDs}); err != nil {
		return failure[struct{}](ctx, op, err, "Failed to mark notifications as read")
	}
	s.afterCommit(ctx, []string{pathNotifications})
	return domain.Ok(struct{}{})
}

// --- HELPERS ---

// afterCommit déclenche les effets de bord, hors transaction. Best effort :
// un échec ici ne change jamais le résultat de l'opération.
func (s *EngagementService) afterCommit(ctx context.Context, paths []string, events ...domain.Event) {
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, compact(paths)...); err != nil {
			slog.WarnContext(ctx, "⚠️ Cache invalidation failed", "paths", paths, "error", err)
		}
	}
	if s.publisher == nil {
		return
	}
	for _, evt := range events {
		if evt.OccurredAt.IsZero() {
			evt.OccurredAt = s.now().UTC()
		}
		if err := s.publisher.Publish(ctx, evt); err != nil {
			slog.WarnContext(ctx, "⚠️ Failed to publish event", "type", evt.Type, "error", err)
		}
	}
}

// profilePath résout le username pour invalider la page profil ("" si inconnu).
func (s *EngagementService) profilePath(ctx context.Context, userID string) string {
	if s.users == nil || s.invalidator == nil {
		return ""
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ""
	}
	return pathProfilePrefix + u.Username
}

func compact(paths []string) []string {
	out := paths[:0:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func unauthenticated[T any](ctx context.Context, op string) domain.Result[T] {
	slog.DebugContext(ctx, "unauthenticated call ignored", "op", op)
	return domain.Fail[T](domain.KindUnauthenticated, domain.ErrUnauthenticated.Error())
}

// Erreurs dont le message peut être montré tel quel à l'utilisateur.
var publicErrors = []error{
	domain.ErrPostNotFound,
	domain.ErrUserNotFound,
	domain.ErrNotYourPost,
	domain.ErrEmptyPost,
	domain.ErrEmptyComment,
	domain.ErrSelfFollow,
}

// failure convertit une erreur en soft-fail et la loggue.
func failure[T any](ctx context.Context, op string, err error, fallback string) domain.Result[T] {
	kind := domain.KindOf(err)
	msg := fallback
	for _, public := range publicErrors {
		if errors.Is(err, public) {
			msg = public.Error()
			break
		}
	}

	switch kind {
	case domain.KindInvalidInput, domain.KindNotFound, domain.KindUnauthorized:
		slog.InfoContext(ctx, "engagement operation rejected", "op", op, "kind", kind, "error", err)
	default:
		slog.ErrorContext(ctx, "❌ Engagement operation failed", "op", op, "kind", kind, "error", err)
	}
	return domain.Fail[T](kind, msg)
}
