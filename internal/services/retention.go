package services

import (
	"context"
	"courier-tracking-service/internal/platform/obs"
	"courier-tracking-service/internal/ports"
	"errors"
	"fmt"
	"time"
)

// DefaultHistoryRetention is how long raw position history is kept.
const DefaultHistoryRetention = 7 * 24 * time.Hour

// PurgeHistory deletes the organization's history recorded at or before
// now - retention. Latest positions are untouched.
func PurgeHistory(
	ctx context.Context,
	store ports.LocationStore,
	orgID string,
	retention time.Duration,
	now time.Time,
) (deleted int64, err error) {
	defer obs.Time(ctx, "retention.Purge")(&err)

	if retention <= 0 {
		retention = DefaultHistoryRetention
	}

	deleted, err = store.PurgeOlderThan(ctx, orgID, now.Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge history: org=%s: %w", orgID, err)
	}
	return deleted, nil
}

// OrganizationLister lists organizations that hold position history.
type OrganizationLister interface {
	ListHistoryOrganizations(ctx context.Context) ([]string, error)
}

// RetentionSweeper purges history for every organization in one pass.
type RetentionSweeper struct {
	Store     ports.LocationStore
	Orgs      OrganizationLister
	Retention time.Duration
	Now       func() time.Time
}

// Sweep purges each organization in turn. A failure for one organization
// does not stop the others; all failures are returned joined.
func (s *RetentionSweeper) Sweep(ctx context.Context) (total int64, err error) {
	if s.Store == nil || s.Orgs == nil {
		return 0, errors.New("retention sweep: dependencies not configured")
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	orgs, err := s.Orgs.ListHistoryOrganizations(ctx)
	if err != nil {
		return 0, fmt.Errorf("retention sweep: list organizations: %w", err)
	}

	var errs []error
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		n, err := PurgeHistory(ctx, s.Store, org, s.Retention, now())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += n
	}

	obs.Logger(ctx).WithField("deleted", total).WithField("orgs", len(orgs)).Info("retention sweep finished")

	return total, errors.Join(errs...)
}
