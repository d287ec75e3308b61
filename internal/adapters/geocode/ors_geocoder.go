package geocode

import (
	"context"
	"courier-tracking-service/internal/domain"
	"courier-tracking-service/internal/platform/obs"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Persistent address -> coordinates cache consulted before the provider.
type Cache interface {
	Get(ctx context.Context, address string) (*domain.Coordinates, error)
	Put(ctx context.Context, address string, c domain.Coordinates) error
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder implements ports.Geocoder using OpenRouteService (/geocode/search).
//
// It coordinates:
//   - Address normalization
//   - Persistent geocode caching
//   - External API calls with retry/backoff
//
// Rate limiting is the caller's concern. The geocoder is safe for concurrent use.
type ORSGeocoder struct {
	session *http.Client
	apiKey  string
	baseURL string
	country string
	cache   Cache

	initialBackoff time.Duration
}

type Option func(*ORSGeocoder)

// WithBaseURL points the geocoder at another ORS-compatible endpoint.
func WithBaseURL(u string) Option { return func(o *ORSGeocoder) { o.baseURL = strings.TrimRight(u, "/") } }

// WithCountry limits results to one ISO country code.
func WithCountry(code string) Option { return func(o *ORSGeocoder) { o.country = code } }

// WithRetryBackoff sets the first retry delay; later delays double.
func WithRetryBackoff(d time.Duration) Option { return func(o *ORSGeocoder) { o.initialBackoff = d } }

// WithCache enables the persistent geocode cache.
func WithCache(c Cache) Option { return func(o *ORSGeocoder) { o.cache = c } }

func NewORSGeocoder(apiKey string, opts ...Option) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	g := &ORSGeocoder{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
	}
	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (o *ORSGeocoder) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Geocode resolves one address, serving from the cache when possible.
func (o *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := o.normalize(address)
	if norm == "" {
		return domain.Coordinates{}, errors.New("geocode: address must be non-empty")
	}

	if o.cache != nil {
		hit, err := o.cache.Get(ctx, norm)
		if err != nil {
			obs.Logger(ctx).WithError(err).Warn("geocode cache read failed")
		}
		if hit != nil {
			return *hit, nil
		}
	}

	coords, err := o.search(ctx, norm)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if o.cache != nil {
		if err := o.cache.Put(ctx, norm, coords); err != nil {
			obs.Logger(ctx).WithError(err).Warn("geocode cache write failed")
		}
	}

	return coords, nil
}

func (o *ORSGeocoder) search(ctx context.Context, norm string) (domain.Coordinates, error) {
	query := map[string]string{"text": norm, "size": "1"}
	if o.country != "" {
		query["boundary.country"] = o.country
	}

	resp, err := o.get(ctx, "/geocode/search", query)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("%w: %q", domain.ErrGeocodeNotFound, norm)
	}

	// GeoJSON order is [lon, lat].
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) < 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", norm)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
