package services

import (
	"context"
	"courier-tracking-service/internal/domain"
	"courier-tracking-service/internal/platform/obs"
	"courier-tracking-service/internal/ports"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultGeocodeInterval keeps batch runs under the provider's one request per second.
const DefaultGeocodeInterval = 1100 * time.Millisecond

// Limiter paces outbound geocode calls. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewGeocodeLimiter allows one call per interval with no burst.
func NewGeocodeLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		interval = DefaultGeocodeInterval
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

type GeocodeBatchResult struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int
}

// GeocodeBatcher resolves addresses of orders that have no coordinates yet.
type GeocodeBatcher struct {
	Geocoder ports.Geocoder
	Orders   ports.GeocodeTargetRepository
	Limiter  Limiter
}

// Run geocodes every pending order of the organization, one at a time.
//
// A geocoder error or a missing match marks that order FAILED and the batch
// moves on. Cancelling ctx stops the batch and returns the counts so far
// together with the context error. Storage errors abort the batch.
func (b *GeocodeBatcher) Run(ctx context.Context, orgID string) (res GeocodeBatchResult, err error) {
	defer obs.Time(ctx, "geocode.Batch")(&err)

	if b.Geocoder == nil || b.Orders == nil {
		return res, errors.New("geocode batch: dependencies not configured")
	}

	targets, err := b.Orders.ListUngeocoded(ctx, orgID)
	if err != nil {
		return res, fmt.Errorf("geocode batch: list pending: %w", err)
	}
	res.Total = len(targets)

	log := obs.Logger(ctx).WithField("org_id", orgID)

	for _, t := range targets {
		if b.Limiter != nil {
			if err := b.Limiter.Wait(ctx); err != nil {
				return res, fmt.Errorf("geocode batch: %w", err)
			}
		}
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("geocode batch: %w", err)
		}

		coords, gerr := b.Geocoder.Geocode(ctx, t.Address)
		if gerr != nil && ctx.Err() != nil {
			return res, fmt.Errorf("geocode batch: %w", ctx.Err())
		}

		if gerr != nil || !coords.Valid() {
			if gerr != nil && !errors.Is(gerr, domain.ErrGeocodeNotFound) {
				log.WithError(gerr).WithField("order_id", t.OrderID).Warn("geocode failed")
			}
			if err := b.Orders.SaveGeocodeResult(ctx, orgID, t.OrderID, nil, domain.GeocodeFailed); err != nil {
				return res, fmt.Errorf("geocode batch: save order %s: %w", t.OrderID, err)
			}
			res.Processed++
			res.Failed++
			continue
		}

		if err := b.Orders.SaveGeocodeResult(ctx, orgID, t.OrderID, &coords, domain.GeocodeOK); err != nil {
			return res, fmt.Errorf("geocode batch: save order %s: %w", t.OrderID, err)
		}
		res.Processed++
		res.Succeeded++
	}

	log.WithFields(logrus.Fields{
		"total":     res.Total,
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
	}).Info("geocode batch finished")

	return res, nil
}
