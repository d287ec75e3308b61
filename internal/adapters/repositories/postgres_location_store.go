package repositories

import (
	"context"
	"courier-tracking-service/internal/domain"
	"courier-tracking-service/internal/platform/db"
	"courier-tracking-service/internal/platform/obs"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Postgres-backed implementation of the LocationStore port.
//
// A report writes courier_locations and courier_location_history in one
// transaction, so readers see both rows or neither.
type PostgresLocationStore struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewPostgresLocationStore(conn *sqlx.DB, now func() time.Time) *PostgresLocationStore {
	if now == nil {
		now = time.Now
	}
	return &PostgresLocationStore{DB: conn, now: now}
}

func (s *PostgresLocationStore) Report(
	ctx context.Context,
	orgID string,
	courierID string,
	report domain.PositionReport,
) (_ domain.Position, err error) {
	defer obs.Time(ctx, "location.pg.Report")(&err)

	if err := report.Validate(); err != nil {
		return domain.Position{}, err
	}
	if s.DB == nil {
		return domain.Position{}, errors.New("postgres location store: DB is nil")
	}

	// timestamptz keeps microseconds; truncate so the returned value matches reads.
	recordedAt := s.now().UTC().Truncate(time.Microsecond)
	pos := domain.Position{
		OrganizationID: orgID,
		CourierID:      courierID,
		Lat:            *report.Lat,
		Lon:            *report.Lon,
		Accuracy:       report.Accuracy,
		ActiveOrderID:  report.ActiveOrderID,
		RecordedAt:     recordedAt,
	}

	err = db.Tx(ctx, s.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO courier_locations (
			organization_id, courier_id, lat, lon, accuracy, active_order_id, recorded_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (organization_id, courier_id) DO UPDATE
		SET lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			accuracy = EXCLUDED.accuracy,
			active_order_id = EXCLUDED.active_order_id,
			recorded_at = EXCLUDED.recorded_at,
			updated_at = EXCLUDED.updated_at;
		`, pos.OrganizationID, pos.CourierID, pos.Lat, pos.Lon, pos.Accuracy, pos.ActiveOrderID, pos.RecordedAt); err != nil {
			return fmt.Errorf("upsert latest position: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
		INSERT INTO courier_location_history (
			organization_id, courier_id, lat, lon, accuracy, active_order_id, recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
		`, pos.OrganizationID, pos.CourierID, pos.Lat, pos.Lon, pos.Accuracy, pos.ActiveOrderID, pos.RecordedAt); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Position{}, fmt.Errorf("report position org=%s courier=%s: %w", orgID, courierID, err)
	}

	return pos, nil
}

func (s *PostgresLocationStore) GetLatest(ctx context.Context, orgID, courierID string) (_ *domain.Position, err error) {
	defer obs.Time(ctx, "location.pg.GetLatest")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres location store: DB is nil")
	}

	var pos domain.Position
	err = s.DB.GetContext(ctx, &pos, `
	SELECT organization_id, courier_id, lat, lon, accuracy, active_order_id, recorded_at
	FROM courier_locations
	WHERE organization_id = $1 AND courier_id = $2;
	`, orgID, courierID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest position: query courier_locations table: %w", err)
	}

	return &pos, nil
}

func (s *PostgresLocationStore) GetHistorySince(
	ctx context.Context,
	orgID string,
	courierID string,
	since time.Time,
) (_ []domain.Position, err error) {
	defer obs.Time(ctx, "location.pg.GetHistorySince")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres location store: DB is nil")
	}

	history := make([]domain.Position, 0, 64)
	err = s.DB.SelectContext(ctx, &history, `
	SELECT organization_id, courier_id, lat, lon, accuracy, active_order_id, recorded_at
	FROM courier_location_history
	WHERE organization_id = $1
		AND courier_id = $2
		AND recorded_at >= $3
	ORDER BY recorded_at ASC, id ASC;
	`, orgID, courierID, since)
	if err != nil {
		return nil, fmt.Errorf("get history: query courier_location_history table: %w", err)
	}

	return history, nil
}

func (s *PostgresLocationStore) GetAllLatest(ctx context.Context, orgID string) (_ []domain.CourierPosition, err error) {
	defer obs.Time(ctx, "location.pg.GetAllLatest")(&err)

	if s.DB == nil {
		return nil, errors.New("postgres location store: DB is nil")
	}

	rows := make([]domain.CourierPosition, 0, 16)
	err = s.DB.SelectContext(ctx, &rows, `
	SELECT
		l.organization_id,
		l.courier_id,
		l.lat,
		l.lon,
		l.accuracy,
		l.active_order_id,
		l.recorded_at,
		l.updated_at,
		COALESCE(u.name, '') AS courier_name,
		COALESCE(u.phone, '') AS courier_phone
	FROM courier_locations l
	LEFT JOIN users u ON u.id = l.courier_id
	WHERE l.organization_id = $1
	ORDER BY courier_name, l.courier_id;
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("get all latest positions: query courier_locations table: %w", err)
	}

	return rows, nil
}

func (s *PostgresLocationStore) PurgeOlderThan(ctx context.Context, orgID string, cutoff time.Time) (_ int64, err error) {
	defer obs.Time(ctx, "location.pg.PurgeOlderThan")(&err)

	if s.DB == nil {
		return 0, errors.New("postgres location store: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `
	DELETE FROM courier_location_history
	WHERE organization_id = $1 AND recorded_at <= $2;
	`, orgID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge history: delete rows: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge history: rows affected: %w", err)
	}

	return n, nil
}

// Return the organizations that currently hold any history rows.
func (s *PostgresLocationStore) ListHistoryOrganizations(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, errors.New("postgres location store: DB is nil")
	}

	orgs := make([]string, 0, 8)
	if err := s.DB.SelectContext(ctx, &orgs, `
	SELECT DISTINCT organization_id
	FROM courier_location_history
	ORDER BY organization_id;
	`); err != nil {
		return nil, fmt.Errorf("list history organizations: %w", err)
	}

	return orgs, nil
}
