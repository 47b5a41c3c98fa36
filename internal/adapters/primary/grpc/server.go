package grpc

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/primary/dto"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/auth"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

var _ EngagementServer = (*Server)(nil)

type Server struct {
	identity   ports.IdentityService
	engagement ports.EngagementService
	feed       ports.FeedService
}

func NewServer(identity ports.IdentityService, engagement ports.EngagementService, feed ports.FeedService) *Server {
	return &Server{identity: identity, engagement: engagement, feed: feed}
}

func (s *Server) Register(grpcServer *grpc.Server) {
	grpcServer.RegisterService(&ServiceDesc, s)
}

// --- AUTH ---

// UnaryAuthInterceptor résout le bearer token en utilisateur local.
// Pas de header = appel anonyme (les mutations seront des no-op).
// Token présent mais invalide = Unauthenticated.
func UnaryAuthInterceptor(identity ports.IdentityService) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, "/"+ServiceName+"/") {
			return handler(ctx, req) // health, reflection...
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}

		token, err := auth.BearerToken(header)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		if token == "" {
			return handler(ctx, req)
		}

		userID, err := identity.Authenticate(ctx, token)
		if err != nil {
			return nil, mapDomainError(ctx, "Authenticate", err)
		}
		return handler(auth.WithUserID(ctx, userID), req)
	}
}

// --- IDENTITY ---

// ResolveLocalUser renvoie l'ID déjà résolu par l'intercepteur, comme GET /me.
func (s *Server) ResolveLocalUser(ctx context.Context, _ *ResolveLocalUserRequest) (*ResolveLocalUserResponse, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return &ResolveLocalUserResponse{UserID: userID}, nil
}

func (s *Server) GetProfile(ctx context.Context, req *GetProfileRequest) (*dto.Profile, error) {
	profile, err := s.identity.GetProfile(ctx, req.Username)
	if err != nil {
		return nil, mapDomainError(ctx, "GetProfile", err)
	}
	out := dto.NewProfile(profile)
	return &out, nil
}

// --- COMMANDS (soft-fail : le Result voyage dans la réponse) ---

func (s *Server) CreatePost(ctx context.Context, req *CreatePostRequest) (*PostResult, error) {
	res := s.engagement.CreatePost(ctx, auth.UserID(ctx), req.Content, req.Image)
	out := dto.FromResult(res, dto.NewPost)
	return &out, nil
}

func (s *Server) DeletePost(ctx context.Context, req *DeletePostRequest) (*EmptyResult, error) {
	res := s.engagement.DeletePost(ctx, auth.UserID(ctx), req.PostID)
	out := dto.FromResult(res, dto.Empty)
	return &out, nil
}

func (s *Server) ToggleLike(ctx context.Context, req *ToggleLikeRequest) (*ToggleResult, error) {
	res := s.engagement.ToggleLike(ctx, auth.UserID(ctx), req.PostID)
	out := dto.FromResult(res, dto.Bool)
	return &out, nil
}

func (s *Server) ToggleFollow(ctx context.Context, req *ToggleFollowRequest) (*ToggleResult, error) {
	res := s.engagement.ToggleFollow(ctx, auth.UserID(ctx), req.TargetUserID)
	out := dto.FromResult(res, dto.Bool)
	return &out, nil
}

func (s *Server) CreateComment(ctx context.Context, req *CreateCommentRequest) (*CommentResult, error) {
	res := s.engagement.CreateComment(ctx, auth.UserID(ctx), req.PostID, req.Content)
	out := dto.FromResult(res, dto.NewComment)
	return &out, nil
}

func (s *Server) ListNotifications(ctx context.Context, _ *ListNotificationsRequest) (*NotificationsResult, error) {
	res := s.engagement.ListNotifications(ctx, auth.UserID(ctx))
	out := dto.FromResult(res, dto.NewNotifications)
	return &out, nil
}

func (s *Server) MarkNotificationsRead(ctx context.Context, req *MarkNotificationsReadRequest) (*EmptyResult, error) {
	res := s.engagement.MarkNotificationsRead(ctx, auth.UserID(ctx), req.IDs)
	out := dto.FromResult(res, dto.Empty)
	return &out, nil
}

func (s *Server) SuggestUsers(ctx context.Context, req *SuggestUsersRequest) (*UserCardsResult, error) {
	res := s.engagement.SuggestUsers(ctx, auth.UserID(ctx), req.Limit)
	out := dto.FromResult(res, dto.NewUserCards)
	return &out, nil
}

// --- QUERIES (hard-fail : erreur gRPC) ---

func (s *Server) ListPosts(ctx context.Context, req *ListPostsRequest) (*ListPostsResponse, error) {
	var (
		posts []domain.FeedPost
		err   error
	)
	if req.Username != "" {
		posts, err = s.feed.ListPostsByAuthor(ctx, req.Username)
	} else {
		posts, err = s.feed.ListPosts(ctx)
	}
	if err != nil {
		return nil, mapDomainError(ctx, "ListPosts", err)
	}
	return &ListPostsResponse{Posts: dto.NewFeed(posts)}, nil
}

// --- HELPERS ---

func mapDomainError(ctx context.Context, op string, err error) error {
	switch domain.KindOf(err) {
	case domain.KindUnauthenticated:
		return status.Error(codes.Unauthenticated, "unauthenticated")
	case domain.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.KindUnauthorized:
		return status.Error(codes.PermissionDenied, err.Error())
	case domain.KindInvalidInput:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.KindConstraintViolation:
		return status.Error(codes.AlreadyExists, err.Error())
	case domain.KindStoreUnavailable:
		slog.ErrorContext(ctx, "❌ Store unavailable", "op", op, "error", err)
		return status.Error(codes.Unavailable, "store unavailable")
	default:
		slog.ErrorContext(ctx, "❌ Internal error", "op", op, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
