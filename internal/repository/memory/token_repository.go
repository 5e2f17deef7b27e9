package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// TokenRepository keeps revoked access tokens in memory until they would have
// expired anyway. Single-instance deployments use this directly; clustered
// ones use the Redis-backed variant so a logout propagates.
type TokenRepository struct {
	cache *cache.Cache
}

func NewTokenRepository() *TokenRepository {
	// Purge expired entries every 10 minutes; per-entry TTL is set on Revoke.
	c := cache.New(cache.NoExpiration, 10*time.Minute)
	return &TokenRepository{
		cache: c,
	}
}

func (r *TokenRepository) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to block
	}
	r.cache.Set(token, struct{}{}, ttl)
	return nil
}

func (r *TokenRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	_, found := r.cache.Get(token)
	return found, nil
}
