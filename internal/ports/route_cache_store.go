package ports

import (
	"context"
	"courier-tracking-service/internal/domain"
)

// Storage behind the route cache. Expiry policy is owned by the caller;
// stores expire entries lazily or natively (Redis TTL) after ExpiresAt.
type RouteCacheStore interface {
	Get(ctx context.Context, key string) (*domain.CachedRoute, bool, error)
	Put(ctx context.Context, key string, entry domain.CachedRoute) error
}
