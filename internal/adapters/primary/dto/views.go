// Package dto contient le contrat JSON partagé par les adapters HTTP et gRPC.
package dto

import (
	"time"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

// --- ENVELOPPE ---

// Result est la forme "soft-fail" : success=false + error affichable.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// FromResult mappe un domain.Result en appliquant conv à la valeur.
func FromResult[T, V any](r domain.Result[T], conv func(T) V) Result[V] {
	if !r.Success {
		out := Result[V]{Error: r.ErrorMessage()}
		if r.Failure != nil {
			out.Kind = string(r.Failure.Kind)
		}
		return out
	}
	return Result[V]{Success: true, Data: conv(r.Value)}
}

// --- VUES ---

type Author struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image,omitempty"`
}

type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Author   `json:"author,omitempty"`
}

type FeedPost struct {
	Post
	Author       Author    `json:"author"`
	Comments     []Comment `json:"comments"`
	LikedBy      []string  `json:"liked_by"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
}

type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
	Actor     Author    `json:"actor"`
	Post      *Post     `json:"post,omitempty"`
	Comment   *Comment  `json:"comment,omitempty"`
}

type UserCard struct {
	Author
	Followers int `json:"followers"`
}

type Profile struct {
	Author
	Bio       string    `json:"bio,omitempty"`
	Location  string    `json:"location,omitempty"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Followers int       `json:"followers"`
	Following int       `json:"following"`
	Posts     int       `json:"posts"`
}

// --- MAPPERS ---

func NewAuthor(u domain.UserSummary) Author {
	return Author{ID: u.ID, Name: u.Name, Username: u.Username, Image: u.Image}
}

func NewPost(p *domain.Post) Post {
	if p == nil {
		return Post{}
	}
	return Post{ID: p.ID, AuthorID: p.AuthorID, Content: p.Content, Image: p.Image, CreatedAt: p.CreatedAt}
}

func NewComment(c *domain.Comment) Comment {
	if c == nil {
		return Comment{}
	}
	return Comment{ID: c.ID, PostID: c.PostID, AuthorID: c.AuthorID, Content: c.Content, CreatedAt: c.CreatedAt}
}

func NewFeed(posts []domain.FeedPost) []FeedPost {
	out := make([]FeedPost, len(posts))
	for i := range posts {
		p := &posts[i]
		comments := make([]Comment, len(p.Comments))
		for j := range p.Comments {
			c := NewComment(&p.Comments[j].Comment)
			author := NewAuthor(p.Comments[j].Author)
			c.Author = &author
			comments[j] = c
		}
		likedBy := p.LikedBy
		if likedBy == nil {
			likedBy = []string{}
		}
		out[i] = FeedPost{
			Post:         NewPost(&p.Post),
			Author:       NewAuthor(p.Author),
			Comments:     comments,
			LikedBy:      likedBy,
			LikeCount:    p.LikeCount,
			CommentCount: p.CommentCount,
		}
	}
	return out
}

func NewNotifications(views []domain.NotificationView) []Notification {
	out := make([]Notification, len(views))
	for i, v := range views {
		n := Notification{
			ID:        v.ID,
			Type:      string(v.Type),
			Read:      v.Read,
			CreatedAt: v.CreatedAt,
			Actor:     NewAuthor(v.Actor),
		}
		if v.Post != nil {
			n.Post = &Post{ID: v.Post.ID, Content: v.Post.Content, Image: v.Post.Image}
		}
		if v.Comment != nil {
			n.Comment = &Comment{ID: v.Comment.ID, Content: v.Comment.Content, CreatedAt: v.Comment.CreatedAt}
		}
		out[i] = n
	}
	return out
}

func NewUserCards(cards []domain.UserCard) []UserCard {
	out := make([]UserCard, len(cards))
	for i, c := range cards {
		out[i] = UserCard{Author: NewAuthor(c.UserSummary), Followers: c.Followers}
	}
	return out
}

func NewProfile(p *domain.Profile) Profile {
	return Profile{
		Author:    NewAuthor(p.Summary()),
		Bio:       p.Bio,
		Location:  p.Location,
		Website:   p.Website,
		CreatedAt: p.CreatedAt,
		Followers: p.Followers,
		Following: p.Following,
		Posts:     p.Posts,
	}
}

// Empty sert aux Result[struct{}] : rien à renvoyer.
func Empty(struct{}) struct{} { return struct{}{} }

func Bool(b bool) bool { return b }
