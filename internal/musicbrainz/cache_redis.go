package musicbrainz

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/qdes/aldex/internal/platform/constants"
)

// RedisCache backs the search cache with Redis.
//
// Cache failures degrade to live API calls, never to request errors, so
// both methods swallow Redis errors after logging is handled upstream.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (cache *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := cache.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

func (cache *RedisCache) Set(ctx context.Context, key string, value string) {
	_ = cache.client.Set(ctx, key, value, constants.MBZSearchCacheTTL).Err()
}
