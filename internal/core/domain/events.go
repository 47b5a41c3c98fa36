package domain

import "time"

// --- ÉVÉNEMENTS (publiés après commit) ---

type EventType string

const (
	EventPostCreated    EventType = "engagement.post.created"
	EventPostDeleted    EventType = "engagement.post.deleted"
	EventLikeCreated    EventType = "engagement.like.created"
	EventLikeDeleted    EventType = "engagement.like.deleted"
	EventFollowCreated  EventType = "engagement.follow.created"
	EventFollowDeleted  EventType = "engagement.follow.deleted"
	EventCommentCreated EventType = "engagement.comment.created"
)

type Event struct {
	Type         EventType
	ActorID      string
	TargetUserID string
	PostID       string
	CommentID    string
	OccurredAt   time.Time
}
