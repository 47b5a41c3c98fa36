package grpc

import "github.com/jupiterclapton/cenackle/services/engagement-service/internal/adapters/primary/dto"

// --- REQUÊTES ---

// ResolveLocalUserRequest ne porte rien : le principal vient du bearer vérifié.
type ResolveLocalUserRequest struct{}

type CreatePostRequest struct {
	Content string `json:"content"`
	Image   string `json:"image,omitempty"`
}

type DeletePostRequest struct {
	PostID string `json:"post_id"`
}

type ToggleLikeRequest struct {
	PostID string `json:"post_id"`
}

type ToggleFollowRequest struct {
	TargetUserID string `json:"target_user_id"`
}

type CreateCommentRequest struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

// ListPostsRequest : Username vide = feed global.
type ListPostsRequest struct {
	Username string `json:"username,omitempty"`
}

type ListNotificationsRequest struct{}

type MarkNotificationsReadRequest struct {
	IDs []string `json:"ids,omitempty"` // vide = tout marquer
}

type SuggestUsersRequest struct {
	Limit int `json:"limit,omitempty"`
}

type GetProfileRequest struct {
	Username string `json:"username"`
}

// --- RÉPONSES ---

type ResolveLocalUserResponse struct {
	UserID string `json:"user_id"`
}

type ListPostsResponse struct {
	Posts []dto.FeedPost `json:"posts"`
}

type (
	PostResult          = dto.Result[dto.Post]
	CommentResult       = dto.Result[dto.Comment]
	ToggleResult        = dto.Result[bool]
	EmptyResult         = dto.Result[struct{}]
	NotificationsResult = dto.Result[[]dto.Notification]
	UserCardsResult     = dto.Result[[]dto.UserCard]
)
