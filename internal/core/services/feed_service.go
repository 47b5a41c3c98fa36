package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

// FeedService est le chemin de lecture : pas d'effets de bord, les erreurs
// remontent telles quelles à l'appelant.
type FeedService struct {
	reader ports.FeedReader
	users  ports.UserRepository
	cache  ports.FeedCache // optionnel
}

func NewFeedService(reader ports.FeedReader, users ports.UserRepository, cache ports.FeedCache) *FeedService {
	return &FeedService{reader: reader, users: users, cache: cache}
}

func (s *FeedService) ListPosts(ctx context.Context) ([]domain.FeedPost, error) {
	// 1. Cache read-through (versionné)
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		posts, v, hit, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			slog.WarnContext(ctx, "⚠️ Feed cache unavailable", "error", err)
		case hit:
			return posts, nil
		default:
			version, cacheable = v, true
		}
	}

	// 2. Snapshot cohérent depuis le store
	posts, err := s.reader.ListFeed(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	// 3. Remplissage sous la version lue AVANT la requête : si une mutation
	// a eu lieu entre-temps, cette entrée ne sera plus jamais lue.
	if cacheable {
		if err := s.cache.Put(ctx, version, posts); err != nil {
			slog.WarnContext(ctx, "⚠️ Failed to fill feed cache", "version", version, "error", err)
		}
	}
	return posts, nil
}

func (s *FeedService) ListPostsByAuthor(ctx context.Context, username string) ([]domain.FeedPost, error) {
	profile, err := s.users.GetProfileByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list posts by %q: %w", username, err)
	}
	posts, err := s.reader.ListFeed(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("list posts by %q: %w", username, err)
	}
	return posts, nil
}
