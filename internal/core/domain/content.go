package domain

import (
	"strings"
	"time"
)

type Post struct {
	ID        string
	AuthorID  string
	Content   string
	Image     string // URI optionnelle
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment est immuable une fois créé (pas d'édition).
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// Like : au plus un par couple (UserID, PostID).
type Like struct {
	ID        string
	UserID    string
	PostID    string
	CreatedAt time.Time
}

// Follow : arête dirigée FollowerID -> FollowingID, jamais vers soi-même.
type Follow struct {
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}

func NewPost(id, authorID, content, image string, now time.Time) (*Post, error) {
	content = strings.TrimSpace(content)
	image = strings.TrimSpace(image)
	if content == "" && image == "" {
		return nil, ErrEmptyPost
	}
	return &Post{
		ID:        id,
		AuthorID:  authorID,
		Content:   content,
		Image:     image,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

func NewComment(id, postID, authorID, content string, now time.Time) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	return &Comment{
		ID:        id,
		PostID:    postID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: now.UTC(),
	}, nil
}

func NewFollow(followerID, followingID string, now time.Time) (*Follow, error) {
	if followerID == followingID {
		return nil, ErrSelfFollow
	}
	return &Follow{FollowerID: followerID, FollowingID: followingID, CreatedAt: now.UTC()}, nil
}
