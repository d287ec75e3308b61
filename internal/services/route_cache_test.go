package services

import (
	"context"
	"courier-tracking-service/internal/adapters/cache"
	"courier-tracking-service/internal/domain"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*domain.CachedRoute, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenStore) Put(context.Context, string, domain.CachedRoute) error {
	return errors.New("connection refused")
}

func fixedRoute(km float64) ComputeRouteFunc {
	return func(context.Context) (*domain.RouteResult, error) {
		return &domain.RouteResult{Stops: []domain.RouteStop{}, TotalDistanceKm: km}, nil
	}
}

func TestRouteCacheKeyIsScopedByOrganization(t *testing.T) {
	assert.Equal(t, "route:org-1:c-1", RouteCacheKey("org-1", "c-1"))
	assert.NotEqual(t, RouteCacheKey("org-1", "c-1"), RouteCacheKey("org-2", "c-1"))
}

func TestRouteCacheStoreFailureIsAMiss(t *testing.T) {
	c := NewRouteCache(brokenStore{}, 0, nil)

	var calls int
	compute := func(ctx context.Context) (*domain.RouteResult, error) {
		calls++
		return fixedRoute(3)(ctx)
	}

	for range 2 {
		r, err := c.GetOrCompute(context.Background(), "o", "c", compute)
		require.NoError(t, err)
		assert.Equal(t, 3.0, r.TotalDistanceKm)
	}
	assert.Equal(t, 2, calls)
}

func TestRouteCacheDoesNotStoreFailures(t *testing.T) {
	clock := newFakeClock()
	c := NewRouteCache(cache.NewMemoryRouteCache(clock.Now), time.Minute, clock.Now)

	_, err := c.GetOrCompute(context.Background(), "o", "c", func(context.Context) (*domain.RouteResult, error) {
		return nil, errors.New("db down")
	})
	require.Error(t, err)

	r, err := c.GetOrCompute(context.Background(), "o", "c", fixedRoute(7))
	require.NoError(t, err)
	assert.Equal(t, 7.0, r.TotalDistanceKm)
}

func TestRouteCacheReturnsIndependentCopies(t *testing.T) {
	clock := newFakeClock()
	c := NewRouteCache(cache.NewMemoryRouteCache(clock.Now), 0, clock.Now)

	compute := func(context.Context) (*domain.RouteResult, error) {
		return &domain.RouteResult{Stops: []domain.RouteStop{{Stop: domain.Stop{ID: "a"}, Position: 1}}}, nil
	}

	first, err := c.GetOrCompute(context.Background(), "o", "c", compute)
	require.NoError(t, err)
	first.Stops[0].ID = "mutated"

	second, err := c.GetOrCompute(context.Background(), "o", "c", compute)
	require.NoError(t, err)
	assert.Equal(t, "a", second.Stops[0].ID)
}

func TestRouteCacheCollapsesConcurrentMisses(t *testing.T) {
	clock := newFakeClock()
	c := NewRouteCache(cache.NewMemoryRouteCache(clock.Now), 0, clock.Now)

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (*domain.RouteResult, error) {
		calls.Add(1)
		<-release
		return &domain.RouteResult{Stops: []domain.RouteStop{}, TotalDistanceKm: 1}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	started.Add(callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			_, err := c.GetOrCompute(context.Background(), "o", "c", compute)
			assert.NoError(t, err)
		}()
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestRouteCacheLeaderCancellationDoesNotFailFollowers(t *testing.T) {
	clock := newFakeClock()
	c := NewRouteCache(cache.NewMemoryRouteCache(clock.Now), 0, clock.Now)

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (*domain.RouteResult, error) {
		calls.Add(1)
		close(entered)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &domain.RouteResult{Stops: []domain.RouteStop{}, TotalDistanceKm: 4}, nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrCompute(leaderCtx, "o", "c", compute)
		leaderErr <- err
	}()

	<-entered
	cancel()
	require.ErrorIs(t, <-leaderErr, context.Canceled)

	type outcome struct {
		route *domain.RouteResult
		err   error
	}
	follower := make(chan outcome, 1)
	go func() {
		r, err := c.GetOrCompute(context.Background(), "o", "c", compute)
		follower <- outcome{r, err}
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)

	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, 4.0, got.route.TotalDistanceKm)
	assert.Equal(t, int32(1), calls.Load())
}
