package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/qdes/aldex/internal/platform/constants"
)

// CachedSessionRepository wraps a [SessionRepository] with a Redis
// look-aside cache keyed by token hash.
//
// # Consistency
//
// Revoke deletes the cache entry before touching Postgres, so a revoked
// session can never be served stale. Every other Redis failure degrades to
// a Postgres read.
type CachedSessionRepository struct {
	inner SessionRepository
	cache *redis.Client
}

func NewCachedSessionRepository(inner SessionRepository, cache *redis.Client) *CachedSessionRepository {
	return &CachedSessionRepository{inner: inner, cache: cache}
}

func sessionKey(tokenHash string) string {
	return constants.RedisPrefixSession + tokenHash
}

func (repository *CachedSessionRepository) Create(ctx context.Context, session *Session) error {
	if err := repository.inner.Create(ctx, session); err != nil {
		return err
	}
	repository.cacheSet(ctx, session)
	return nil
}

func (repository *CachedSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	if raw, err := repository.cache.Get(ctx, sessionKey(tokenHash)).Result(); err == nil {
		cached := &Session{}
		if err := json.Unmarshal([]byte(raw), cached); err == nil {
			if !cached.IsRevoked && cached.ExpiresAt.After(time.Now()) {
				return cached, nil
			}
		}
	}

	session, err := repository.inner.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	repository.cacheSet(ctx, session)
	return session, nil
}

// Revoke drops the cache entry first: if the Postgres update then fails,
// the worst case is an extra database read, never a replayable token.
func (repository *CachedSessionRepository) Revoke(ctx context.Context, session *Session) error {
	_ = repository.cache.Del(ctx, sessionKey(session.TokenHash)).Err()
	return repository.inner.Revoke(ctx, session)
}

func (repository *CachedSessionRepository) cacheSet(ctx context.Context, session *Session) {
	encoded, err := json.Marshal(session)
	if err != nil {
		return
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return
	}
	if ttl > time.Hour {
		ttl = time.Hour
	}

	_ = repository.cache.Set(ctx, sessionKey(session.TokenHash), encoded, ttl).Err()
}
