package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/primary/dto"
)

const ServiceName = "engagement.v1.EngagementService"

// EngagementServer est le contrat du service gRPC (équivalent de
// l'interface générée par protoc-gen-go-grpc).
type EngagementServer interface {
	ResolveLocalUser(context.Context, *ResolveLocalUserRequest) (*ResolveLocalUserResponse, error)
	CreatePost(context.Context, *CreatePostRequest) (*PostResult, error)
	DeletePost(context.Context, *DeletePostRequest) (*EmptyResult, error)
	ToggleLike(context.Context, *ToggleLikeRequest) (*ToggleResult, error)
	ToggleFollow(context.Context, *ToggleFollowRequest) (*ToggleResult, error)
	CreateComment(context.Context, *CreateCommentRequest) (*CommentResult, error)
	ListPosts(context.Context, *ListPostsRequest) (*ListPostsResponse, error)
	ListNotifications(context.Context, *ListNotificationsRequest) (*NotificationsResult, error)
	MarkNotificationsRead(context.Context, *MarkNotificationsReadRequest) (*EmptyResult, error)
	SuggestUsers(context.Context, *SuggestUsersRequest) (*UserCardsResult, error)
	GetProfile(context.Context, *GetProfileRequest) (*dto.Profile, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EngagementServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ResolveLocalUser", EngagementServer.ResolveLocalUser),
		unary("CreatePost", EngagementServer.CreatePost),
		unary("DeletePost", EngagementServer.DeletePost),
		unary("ToggleLike", EngagementServer.ToggleLike),
		unary("ToggleFollow", EngagementServer.ToggleFollow),
		unary("CreateComment", EngagementServer.CreateComment),
		unary("ListPosts", EngagementServer.ListPosts),
		unary("ListNotifications", EngagementServer.ListNotifications),
		unary("MarkNotificationsRead", EngagementServer.MarkNotificationsRead),
		unary("SuggestUsers", EngagementServer.SuggestUsers),
		unary("GetProfile", EngagementServer.GetProfile),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "engagement/v1/engagement.proto",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary construit le handler qu'aurait généré protoc pour une méthode.
func unary[Req, Resp any](name string, call func(EngagementServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(EngagementServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
