package geocode

import (
	"context"
	"courier-tracking-service/internal/domain"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu sync.Mutex
	m  map[string]domain.Coordinates
}

func (c *mapCache) Get(_ context.Context, address string) (*domain.Coordinates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[address]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (c *mapCache) Put(_ context.Context, address string, v domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[address] = v
	return nil
}

func TestORSGeocoderResolvesAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "Tverskaya 1, Moscow", r.URL.Query().Get("text"))
		assert.Equal(t, "RU", r.URL.Query().Get("boundary.country"))
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[37.6,55.76]}}]}`))
	}))
	defer srv.Close()

	cache := &mapCache{m: map[string]domain.Coordinates{}}
	g, err := NewORSGeocoder("secret", WithBaseURL(srv.URL), WithCountry("RU"), WithCache(cache))
	require.NoError(t, err)

	got, err := g.Geocode(context.Background(), "  Tverskaya 1,   Moscow ")
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Lon: 37.6, Lat: 55.76}, got)

	again, err := g.Geocode(context.Background(), "Tverskaya 1, Moscow")
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestORSGeocoderNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	g, err := NewORSGeocoder("secret", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = g.Geocode(context.Background(), "Atlantis")
	assert.True(t, errors.Is(err, domain.ErrGeocodeNotFound))
}

func TestORSGeocoderRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[37.65,55.74]}}]}`))
	}))
	defer srv.Close()

	g, err := NewORSGeocoder("secret", WithBaseURL(srv.URL), WithRetryBackoff(time.Millisecond))
	require.NoError(t, err)

	got, err := g.Geocode(context.Background(), "Pyatnitskaya 5")
	require.NoError(t, err)
	assert.Equal(t, 55.74, got.Lat)
	assert.Equal(t, int32(3), calls.Load())
}

func TestORSGeocoderDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	g, err := NewORSGeocoder("bad", WithBaseURL(srv.URL), WithRetryBackoff(time.Millisecond))
	require.NoError(t, err)

	_, err = g.Geocode(context.Background(), "Arbat 10")
	var he *httpStatusError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewORSGeocoderRequiresKey(t *testing.T) {
	_, err := NewORSGeocoder("")
	assert.Error(t, err)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, parseRetryAfter("2"))
	assert.Equal(t, maxRetryAfter, parseRetryAfter("3600"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}

func TestRetryDelayPrefersRetryAfter(t *testing.T) {
	wait, ok := retryDelay(&httpStatusError{Code: http.StatusTooManyRequests, RetryAfter: time.Second}, time.Millisecond)
	assert.True(t, ok)
	assert.Equal(t, time.Second, wait)

	_, ok = retryDelay(&httpStatusError{Code: http.StatusBadRequest}, time.Millisecond)
	assert.False(t, ok)
}
