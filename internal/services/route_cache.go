package services

import (
	"context"
	"courier-tracking-service/internal/domain"
	"courier-tracking-service/internal/platform/obs"
	"courier-tracking-service/internal/ports"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRouteTTL is how long a computed route is served from cache.
const DefaultRouteTTL = 45 * time.Second

// computeTimeout bounds one shared route computation.
const computeTimeout = 30 * time.Second

// ComputeRouteFunc produces a fresh route on a cache miss.
type ComputeRouteFunc func(ctx context.Context) (*domain.RouteResult, error)

// RouteCache memoizes routes per (organization, courier) for a fixed TTL.
//
// New position reports do not invalidate entries: a courier who moves inside
// the TTL window keeps the cached route until it expires. Store failures are
// logged and treated as misses. Concurrent misses for one key share a single
// computation, which keeps running when the caller that started it goes away.
type RouteCache struct {
	store ports.RouteCacheStore
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
}

// NewRouteCache builds a cache over store. A zero ttl means DefaultRouteTTL
// and a nil now means time.Now.
func NewRouteCache(store ports.RouteCacheStore, ttl time.Duration, now func() time.Time) *RouteCache {
	if ttl <= 0 {
		ttl = DefaultRouteTTL
	}
	if now == nil {
		now = time.Now
	}

	return &RouteCache{store: store, ttl: ttl, now: now}
}

func RouteCacheKey(orgID, courierID string) string {
	return "route:" + orgID + ":" + courierID
}

// GetOrCompute returns the cached route for the courier while it is fresh,
// otherwise runs compute and caches its result.
func (c *RouteCache) GetOrCompute(
	ctx context.Context,
	orgID string,
	courierID string,
	compute ComputeRouteFunc,
) (*domain.RouteResult, error) {
	if c.store == nil {
		return nil, errors.New("route cache: store is nil")
	}

	key := RouteCacheKey(orgID, courierID)
	log := obs.Logger(ctx).WithField("key", key)

	entry, ok, err := c.store.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("route cache read failed")
	}
	if err == nil && ok && c.now().Before(entry.ExpiresAt) {
		result := entry.Result.Clone()
		return &result, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Shared by every waiter on key: detached from any one caller's
		// cancellation, bounded by computeTimeout instead.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()

		result, err := compute(fctx)
		if err != nil {
			return nil, err
		}

		cached := domain.CachedRoute{Result: result.Clone(), ExpiresAt: c.now().Add(c.ttl)}
		if err := c.store.Put(fctx, key, cached); err != nil {
			log.WithError(err).Warn("route cache write failed")
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("route cache: wait %s: %w", key, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("route cache: compute %s: %w", key, res.Err)
		}
		result := res.Val.(*domain.RouteResult).Clone()
		return &result, nil
	}
}
