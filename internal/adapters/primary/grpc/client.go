package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/primary/dto"
)

// Client est le stub d'appel pour les autres services (gateway, workers).
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// WithBearer attache le token de l'utilisateur aux appels sortants.
func WithBearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

func invoke[Req, Resp any](ctx context.Context, conn grpc.ClientConnInterface, method string, in *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := conn.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ResolveLocalUser(ctx context.Context, in *ResolveLocalUserRequest, opts ...grpc.CallOption) (*ResolveLocalUserResponse, error) {
	return invoke[ResolveLocalUserRequest, ResolveLocalUserResponse](ctx, c.conn, "ResolveLocalUser", in, opts...)
}

func (c *Client) CreatePost(ctx context.Context, in *CreatePostRequest, opts ...grpc.CallOption) (*PostResult, error) {
	return invoke[CreatePostRequest, PostResult](ctx, c.conn, "CreatePost", in, opts...)
}

func (c *Client) DeletePost(ctx context.Context, in *DeletePostRequest, opts ...grpc.CallOption) (*EmptyResult, error) {
	return invoke[DeletePostRequest, EmptyResult](ctx, c.conn, "DeletePost", in, opts...)
}

func (c *Client) ToggleLike(ctx context.Context, in *ToggleLikeRequest, opts ...grpc.CallOption) (*ToggleResult, error) {
	return invoke[ToggleLikeRequest, ToggleResult](ctx, c.conn, "ToggleLike", in, opts...)
}

func (c *Client) ToggleFollow(ctx context.Context, in *ToggleFollowRequest, opts ...grpc.CallOption) (*ToggleResult, error) {
	return invoke[ToggleFollowRequest, ToggleResult](ctx, c.conn, "ToggleFollow", in, opts...)
}

func (c *Client) CreateComment(ctx context.Context, in *CreateCommentRequest, opts ...grpc.CallOption) (*CommentResult, error) {
	return invoke[CreateCommentRequest, CommentResult](ctx, c.conn, "CreateComment", in, opts...)
}

func (c *Client) ListPosts(ctx context.Context, in *ListPostsRequest, opts ...grpc.CallOption) (*ListPostsResponse, error) {
	return invoke[ListPostsRequest, ListPostsResponse](ctx, c.conn, "ListPosts", in, opts...)
}

func (c *Client) ListNotifications(ctx context.Context, in *ListNotificationsRequest, opts ...grpc.CallOption) (*NotificationsResult, error) {
	return invoke[ListNotificationsRequest, NotificationsResult](ctx, c.conn, "ListNotifications", in, opts...)
}

func (c *Client) MarkNotificationsRead(ctx context.Context, in *MarkNotificationsReadRequest, opts ...grpc.CallOption) (*EmptyResult, error) {
	return invoke[MarkNotificationsReadRequest, EmptyResult](ctx, c.conn, "MarkNotificationsRead", in, opts...)
}

func (c *Client) SuggestUsers(ctx context.Context, in *SuggestUsersRequest, opts ...grpc.CallOption) (*UserCardsResult, error) {
	return invoke[SuggestUsersRequest, UserCardsResult](ctx, c.conn, "SuggestUsers", in, opts...)
}

func (c *Client) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*dto.Profile, error) {
	return invoke[GetProfileRequest, dto.Profile](ctx, c.conn, "GetProfile", in, opts...)
}
