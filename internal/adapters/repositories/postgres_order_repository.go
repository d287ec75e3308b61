package repositories

import (
	"context"
	"courier-tracking-service/internal/domain"
	"courier-tracking-service/internal/platform/obs"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Postgres-backed read access to the order store, plus geocode bookkeeping.
type PostgresOrderRepository struct{ DB *sqlx.DB }

func NewPostgresOrderRepository(conn *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{DB: conn}
}

// Return the courier's orders in the given statuses, oldest first.
func (r *PostgresOrderRepository) ListCourierDeliveries(
	ctx context.Context,
	orgID string,
	courierID string,
	statuses []string,
) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "orders.pg.ListCourierDeliveries")(&err)

	if r.DB == nil {
		return nil, errors.New("postgres order repository: DB is nil")
	}

	if len(statuses) == 0 {
		return []domain.Stop{}, nil
	}

	stops := make([]domain.Stop, 0, 16)
	err = r.DB.SelectContext(ctx, &stops, `
	SELECT id, lat, lon, address, status, client_name
	FROM orders
	WHERE organization_id = $1
		AND courier_id = $2
		AND status = ANY($3::text[])
	ORDER BY created_at, id;
	`, orgID, courierID, statuses)
	if err != nil {
		return nil, fmt.Errorf("list courier deliveries: query orders table: %w", err)
	}

	return stops, nil
}

// Return orders that have an address but no coordinates and were not
// already marked FAILED.
func (r *PostgresOrderRepository) ListUngeocoded(ctx context.Context, orgID string) (_ []domain.GeocodeTarget, err error) {
	defer obs.Time(ctx, "orders.pg.ListUngeocoded")(&err)

	if r.DB == nil {
		return nil, errors.New("postgres order repository: DB is nil")
	}

	targets := make([]domain.GeocodeTarget, 0, 16)
	err = r.DB.SelectContext(ctx, &targets, `
	SELECT id, address
	FROM orders
	WHERE organization_id = $1
		AND (lat IS NULL OR lon IS NULL)
		AND address <> ''
		AND (geocode_status IS NULL OR geocode_status <> $2)
	ORDER BY created_at, id;
	`, orgID, domain.GeocodeFailed)
	if err != nil {
		return nil, fmt.Errorf("list ungeocoded orders: query orders table: %w", err)
	}

	return targets, nil
}

func (r *PostgresOrderRepository) SaveGeocodeResult(
	ctx context.Context,
	orgID string,
	orderID string,
	coords *domain.Coordinates,
	status string,
) error {
	if r.DB == nil {
		return errors.New("postgres order repository: DB is nil")
	}

	var lat, lon *float64
	if coords != nil {
		lat, lon = &coords.Lat, &coords.Lon
	}

	_, err := r.DB.ExecContext(ctx, `
	UPDATE orders
	SET lat = $3, lon = $4, geocode_status = $5
	WHERE organization_id = $1 AND id = $2;
	`, orgID, orderID, lat, lon, status)
	if err != nil {
		return fmt.Errorf("save geocode result order=%s: %w", orderID, err)
	}

	return nil
}
