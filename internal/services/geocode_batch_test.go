package services

import (
	"context"
	"courier-tracking-service/internal/adapters/repositories"
	"courier-tracking-service/internal/domain"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGeocoder struct {
	results map[string]domain.Coordinates
	errs    map[string]error
	calls   []string
	onCall  func(n int)
}

func (g *stubGeocoder) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	g.calls = append(g.calls, address)
	if g.onCall != nil {
		g.onCall(len(g.calls))
	}
	if err, ok := g.errs[address]; ok {
		return domain.Coordinates{}, err
	}
	if c, ok := g.results[address]; ok {
		return c, nil
	}
	return domain.Coordinates{}, domain.ErrGeocodeNotFound
}

type countingLimiter struct{ waits int }

func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return ctx.Err()
}

func pendingOrder(id, address string) repositories.MemoryOrder {
	return repositories.MemoryOrder{
		OrganizationID: testOrg,
		Stop:           domain.Stop{ID: id, Address: address, Status: domain.StatusAssembled},
	}
}

func TestGeocodeBatchPartialFailure(t *testing.T) {
	orders := repositories.NewMemoryOrderRepository(
		pendingOrder("o1", "Tverskaya 1"),
		pendingOrder("o2", "Nowhere 0"),
		pendingOrder("o3", "Arbat 10"),
		pendingOrder("o4", "Lubyanka 2"),
	)
	geocoder := &stubGeocoder{
		results: map[string]domain.Coordinates{
			"Tverskaya 1": {Lon: 37.61, Lat: 55.76},
			"Arbat 10":    {Lon: 37.59, Lat: 55.75},
		},
		errs: map[string]error{"Lubyanka 2": errors.New("provider 502")},
	}
	limiter := &countingLimiter{}

	b := &GeocodeBatcher{Geocoder: geocoder, Orders: orders, Limiter: limiter}
	res, err := b.Run(context.Background(), testOrg)
	require.NoError(t, err)

	assert.Equal(t, GeocodeBatchResult{Total: 4, Processed: 4, Succeeded: 2, Failed: 2}, res)
	assert.Equal(t, 4, limiter.waits)
	assert.Equal(t, []string{"Tverskaya 1", "Nowhere 0", "Arbat 10", "Lubyanka 2"}, geocoder.calls)

	o1, _ := orders.Order(testOrg, "o1")
	require.True(t, o1.Stop.Geocoded())
	assert.Equal(t, 55.76, *o1.Stop.Lat)
	assert.Equal(t, domain.GeocodeOK, o1.GeocodeStatus)

	o2, _ := orders.Order(testOrg, "o2")
	assert.False(t, o2.Stop.Geocoded())
	assert.Equal(t, domain.GeocodeFailed, o2.GeocodeStatus)

	// FAILED orders are not retried by the next run.
	again, err := b.Run(context.Background(), testOrg)
	require.NoError(t, err)
	assert.Equal(t, GeocodeBatchResult{}, again)
}

func TestGeocodeBatchStopsOnCancel(t *testing.T) {
	orders := repositories.NewMemoryOrderRepository(
		pendingOrder("o1", "a"),
		pendingOrder("o2", "b"),
		pendingOrder("o3", "c"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	geocoder := &stubGeocoder{
		results: map[string]domain.Coordinates{
			"a": {Lon: 1, Lat: 1},
			"b": {Lon: 2, Lat: 2},
			"c": {Lon: 3, Lat: 3},
		},
		onCall: func(n int) {
			if n == 1 {
				cancel()
			}
		},
	}

	b := &GeocodeBatcher{Geocoder: geocoder, Orders: orders, Limiter: &countingLimiter{}}
	res, err := b.Run(ctx, testOrg)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, GeocodeBatchResult{Total: 3, Processed: 1, Succeeded: 1}, res)
	o2, _ := orders.Order(testOrg, "o2")
	assert.False(t, o2.Stop.Geocoded())
	assert.Empty(t, o2.GeocodeStatus)
}

func TestGeocodeBatchNothingPending(t *testing.T) {
	lat, lon := 55.0, 37.0
	done := pendingOrder("o1", "Tverskaya 1")
	done.Stop.Lat, done.Stop.Lon = &lat, &lon

	geocoder := &stubGeocoder{}
	b := &GeocodeBatcher{Geocoder: geocoder, Orders: repositories.NewMemoryOrderRepository(done)}

	res, err := b.Run(context.Background(), testOrg)
	require.NoError(t, err)
	assert.Equal(t, GeocodeBatchResult{}, res)
	assert.Empty(t, geocoder.calls)
}

func TestNewGeocodeLimiterPaces(t *testing.T) {
	l := NewGeocodeLimiter(20 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		require.NoError(t, l.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}
