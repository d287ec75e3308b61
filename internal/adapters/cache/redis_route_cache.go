package cache

import (
	"context"
	"courier-tracking-service/internal/domain"
	"courier-tracking-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRouteCache stores routes as JSON with a native Redis TTL so that
// several service instances share one cache.
type RedisRouteCache struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRedisRouteCache(client redis.UniversalClient, prefix string, now func() time.Time) *RedisRouteCache {
	if now == nil {
		now = time.Now
	}
	return &RedisRouteCache{client: client, prefix: prefix, now: now}
}

func (r *RedisRouteCache) Get(ctx context.Context, key string) (_ *domain.CachedRoute, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.redis.Get")(&err)

	if r.client == nil {
		return nil, false, errors.New("redis route cache: client is nil")
	}

	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis route cache: get %q: %w", key, err)
	}

	var entry domain.CachedRoute
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("redis route cache: decode %q: %w", key, err)
	}

	return &entry, true, nil
}

func (r *RedisRouteCache) Put(ctx context.Context, key string, entry domain.CachedRoute) (err error) {
	defer obs.Time(ctx, "route.cache.redis.Put")(&err)

	if r.client == nil {
		return errors.New("redis route cache: client is nil")
	}

	// Redis rejects sub-millisecond expirations.
	ttl := entry.ExpiresAt.Sub(r.now())
	if ttl < time.Millisecond {
		return nil
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis route cache: encode %q: %w", key, err)
	}

	if err := r.client.Set(ctx, r.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis route cache: set %q: %w", key, err)
	}
	return nil
}
