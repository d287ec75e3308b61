package cache

import (
	"context"
	"courier-tracking-service/internal/domain"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func sampleRoute() domain.RouteResult {
	lat, lon := 55.76, 37.60
	return domain.RouteResult{
		Stops: []domain.RouteStop{{
			Stop:     domain.Stop{ID: "o-1", Lat: &lat, Lon: &lon, Address: "Tverskaya 1", Status: domain.StatusAssembled, ClientName: "Anna"},
			Position: 1,
		}},
		TotalDistanceKm: 1.68,
		CourierLocation: &domain.Coordinates{Lat: 55.75, Lon: 37.62},
	}
}

func TestMemoryRouteCacheLazyExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryRouteCache(clock.Now)
	ctx := context.Background()

	entry := domain.CachedRoute{Result: sampleRoute(), ExpiresAt: clock.Now().Add(45 * time.Second)}
	require.NoError(t, store.Put(ctx, "route:org:c1", entry))

	got, ok, err := store.Get(ctx, "route:org:c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry, *got)

	clock.Advance(45 * time.Second)
	_, ok, err = store.Get(ctx, "route:org:c1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryRouteCacheMiss(t *testing.T) {
	store := NewMemoryRouteCache(nil)

	got, ok, err := store.Get(context.Background(), "route:org:nobody")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRedisRouteCacheRoundTripAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	store := NewRedisRouteCache(client, "tracker:", func() time.Time { return now })
	ctx := context.Background()

	entry := domain.CachedRoute{Result: sampleRoute(), ExpiresAt: now.Add(45 * time.Second)}
	require.NoError(t, store.Put(ctx, "route:org:c1", entry))
	assert.Equal(t, 45*time.Second, mr.TTL("tracker:route:org:c1"))

	got, ok, err := store.Get(ctx, "route:org:c1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, entry.ExpiresAt.Equal(got.ExpiresAt))
	assert.Equal(t, entry.Result, got.Result)

	mr.FastForward(46 * time.Second)
	_, ok, err = store.Get(ctx, "route:org:c1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRouteCacheSkipsExpiredEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	store := NewRedisRouteCache(client, "", func() time.Time { return now })

	err := store.Put(context.Background(), "k", domain.CachedRoute{Result: sampleRoute(), ExpiresAt: now.Add(-time.Second)})
	require.NoError(t, err)
	assert.False(t, mr.Exists("k"))
}

func TestRedisRouteCacheDecodeError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, mr.Set("bad", "not-json"))
	store := NewRedisRouteCache(client, "", nil)

	_, _, err := store.Get(context.Background(), "bad")
	assert.Error(t, err)
}
