package ports

import (
	"context"
	"courier-tracking-service/internal/domain"
	"time"
)

// Port: persistence of courier positions (latest per courier plus history).
type LocationStore interface {
	// Validate the report, upsert the latest position and append one history
	// row as a single atomic write. Returns the stored position.
	Report(ctx context.Context, orgID, courierID string, report domain.PositionReport) (domain.Position, error)
	// Return the latest position, or nil when the courier has not reported.
	GetLatest(ctx context.Context, orgID, courierID string) (*domain.Position, error)
	// Return history rows with RecordedAt >= since, oldest first.
	GetHistorySince(ctx context.Context, orgID, courierID string, since time.Time) ([]domain.Position, error)
	// Return the latest position of every courier in the organization.
	GetAllLatest(ctx context.Context, orgID string) ([]domain.CourierPosition, error)
	// Delete history rows with RecordedAt <= cutoff. Latest positions are kept.
	PurgeOlderThan(ctx context.Context, orgID string, cutoff time.Time) (int64, error)
}
