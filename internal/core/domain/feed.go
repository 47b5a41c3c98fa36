package domain

type FeedComment struct {
	Comment
	Author UserSummary
}

// FeedPost est un post prêt à afficher : auteur, commentaires (ordre
// chronologique), likers et compteurs.
type FeedPost struct {
	Post
	Author       UserSummary
	Comments     []FeedComment
	LikedBy      []string
	LikeCount    int
	CommentCount int
}

func (p *FeedPost) IsLikedBy(userID string) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}
