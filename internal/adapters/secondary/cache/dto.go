package cache

import (
	"time"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
)

// DTOs internes : les tags JSON restent hors du domaine.

type authorDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Image    string `json:"image,omitempty"`
}

type commentDTO struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    authorDTO `json:"author"`
}

type feedPostDTO struct {
	ID        string       `json:"id"`
	AuthorID  string       `json:"author_id"`
	Content   string       `json:"content"`
	Image     string       `json:"image,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Author    authorDTO    `json:"author"`
	Comments  []commentDTO `json:"comments"`
	LikedBy   []string     `json:"liked_by"`
}

func newAuthorDTO(s domain.UserSummary) authorDTO {
	return authorDTO{ID: s.ID, Name: s.Name, Username: s.Username, Image: s.Image}
}

func (a authorDTO) toDomain() domain.UserSummary {
	return domain.UserSummary{ID: a.ID, Name: a.Name, Username: a.Username, Image: a.Image}
}

func newFeedPostDTO(p *domain.FeedPost) feedPostDTO {
	dto := feedPostDTO{
		ID:        p.ID,
		AuthorID:  p.AuthorID,
		Content:   p.Content,
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Author:    newAuthorDTO(p.Author),
		LikedBy:   p.LikedBy,
		Comments:  make([]commentDTO, len(p.Comments)),
	}
	for i, c := range p.Comments {
		dto.Comments[i] = commentDTO{
			ID:        c.ID,
			AuthorID:  c.AuthorID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			Author:    newAuthorDTO(c.Author),
		}
	}
	return dto
}

func (d *feedPostDTO) toDomain() domain.FeedPost {
	p := domain.FeedPost{
		Post: domain.Post{
			ID:        d.ID,
			AuthorID:  d.AuthorID,
			Content:   d.Content,
			Image:     d.Image,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		Author:    d.Author.toDomain(),
		LikedBy:   d.LikedBy,
		LikeCount: len(d.LikedBy),
	}
	for _, c := range d.Comments {
		p.Comments = append(p.Comments, domain.FeedComment{
			Comment: domain.Comment{
				ID:        c.ID,
				PostID:    d.ID,
				AuthorID:  c.AuthorID,
				Content:   c.Content,
				CreatedAt: c.CreatedAt,
			},
			Author: c.Author.toDomain(),
		})
	}
	p.CommentCount = len(p.Comments)
	return p
}
