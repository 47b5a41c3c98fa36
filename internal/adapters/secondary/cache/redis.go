package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/engagement-service/internal/core/ports"
)

const (
	versionKey    = "feed:version"
	postsKeyFmt   = "feed:posts:v%d"
	homePath      = "/"
	profilePrefix = "/profile/"
)

var (
	_ ports.FeedCache        = (*RedisFeedCache)(nil)
	_ ports.CacheInvalidator = (*RedisFeedCache)(nil)
)

// RedisFeedCache est un cache read-through du feed global.
// Chaque invalidation incrémente feed:version ; une entrée écrite sous une
// ancienne version n'est plus jamais lue et expire avec son TTL.
type RedisFeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFeedCache(client *redis.Client, ttl time.Duration) *RedisFeedCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisFeedCache{client: client, ttl: ttl}
}

func (c *RedisFeedCache) Get(ctx context.Context) ([]domain.FeedPost, int64, bool, error) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	payload, err := c.client.Get(ctx, fmt.Sprintf(postsKeyFmt, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("redis: get feed: %w", err)
	}

	var dtos []feedPostDTO
	if err := json.Unmarshal(payload, &dtos); err != nil {
		// Entrée corrompue : traitée comme un miss, elle sera réécrite.
		return nil, version, false, nil
	}
	posts := make([]domain.FeedPost, len(dtos))
	for i := range dtos {
		posts[i] = dtos[i].toDomain()
	}
	return posts, version, true, nil
}

func (c *RedisFeedCache) Put(ctx context.Context, version int64, posts []domain.FeedPost) error {
	dtos := make([]feedPostDTO, len(posts))
	for i := range posts {
		dtos[i] = newFeedPostDTO(&posts[i])
	}
	payload, err := json.Marshal(dtos)
	if err != nil {
		return fmt.Errorf("failed to marshal feed: %w", err)
	}
	return c.client.Set(ctx, fmt.Sprintf(postsKeyFmt, version), payload, c.ttl).Err()
}

// Invalidate n'agit que sur les chemins qui affichent le feed.
// Si l'INCR échoue, l'entrée de la version courante est supprimée : sans ce
// DEL, le feed d'avant la mutation resterait servi jusqu'à expiration du TTL.
func (c *RedisFeedCache) Invalidate(ctx context.Context, paths ...string) error {
	if !slices.ContainsFunc(paths, affectsFeed) {
		return nil
	}
	incrErr := c.client.Incr(ctx, versionKey).Err()
	if incrErr == nil {
		return nil
	}
	incrErr = fmt.Errorf("redis: bump feed version: %w", incrErr)

	version, err := c.version(ctx)
	if err != nil {
		return errors.Join(incrErr, err)
	}
	if err := c.client.Del(ctx, fmt.Sprintf(postsKeyFmt, version)).Err(); err != nil {
		return errors.Join(incrErr, fmt.Errorf("redis: drop feed v%d: %w", version, err))
	}
	return incrErr
}

func (c *RedisFeedCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis: get feed version: %w", err)
	}
	return v, nil
}

func affectsFeed(path string) bool {
	return path == homePath || strings.HasPrefix(path, profilePrefix)
}
