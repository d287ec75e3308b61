package repositories

import (
	"context"
	"courier-tracking-service/internal/platform/db"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Initialize the Postgres schema. Organizations, users and orders belong to
// the surrounding order-management application; they are created here so the
// tracker can run standalone.
func InitSchema(ctx context.Context, conn *sqlx.DB) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	createOrganizationsQuery := `
	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT ''
	);
	`

	createUsersQuery := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		courier_id TEXT REFERENCES users(id) ON DELETE SET NULL,
		address TEXT NOT NULL DEFAULT '',
		client_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		lat DOUBLE PRECISION,
		lon DOUBLE PRECISION,
		geocode_status TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createLatestQuery := `
	CREATE TABLE IF NOT EXISTS courier_locations (
		organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		courier_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		accuracy DOUBLE PRECISION,
		active_order_id TEXT,
		recorded_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (organization_id, courier_id)
	);
	`

	createHistoryQuery := `
	CREATE TABLE IF NOT EXISTS courier_location_history (
		id BIGSERIAL PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
		courier_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		accuracy DOUBLE PRECISION,
		active_order_id TEXT,
		recorded_at TIMESTAMPTZ NOT NULL
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon DOUBLE PRECISION NOT NULL,
        lat DOUBLE PRECISION NOT NULL
    );
	`

	createHistoryIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_courier_location_history_courier_time
    ON courier_location_history(organization_id, courier_id, recorded_at);
	`

	createOrdersIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_courier_status
    ON orders(organization_id, courier_id, status);
	`

	statements := []string{
		createOrganizationsQuery,
		createUsersQuery,
		createOrdersQuery,
		createLatestQuery,
		createHistoryQuery,
		createGeocodeCacheQuery,
		createHistoryIndexQuery,
		createOrdersIndexQuery,
	}

	return db.Tx(ctx, conn, func(tx *sqlx.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
			}
		}
		return nil
	})
}

type OrganizationSeed struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type UserSeed struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
}

type OrderSeed struct {
	ID             string   `json:"id"`
	OrganizationID string   `json:"organization_id"`
	CourierID      string   `json:"courier_id"`
	Address        string   `json:"address"`
	ClientName     string   `json:"client_name"`
	Status         string   `json:"status"`
	Lat            *float64 `json:"lat"`
	Lon            *float64 `json:"lon"`
}

type Seed struct {
	Organizations []OrganizationSeed `json:"organizations"`
	Users         []UserSeed         `json:"users"`
	Orders        []OrderSeed        `json:"orders"`
}

// ReadSeed parses and validates a seed file.
func ReadSeed(jsonPath string) (Seed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return Seed{}, fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return Seed{}, fmt.Errorf("seed: parse json: %w", err)
	}

	for i, o := range data.Orders {
		if strings.TrimSpace(o.ID) == "" {
			return Seed{}, fmt.Errorf("seed: order at index %d: id cannot be empty", i+1)
		}
		if strings.TrimSpace(o.Status) == "" {
			return Seed{}, fmt.Errorf("seed: order %q: status cannot be empty", o.ID)
		}
	}

	return data, nil
}

// Populate the database with demo organizations, users and orders from a JSON file.
func SeedFromJSON(ctx context.Context, conn *sqlx.DB, jsonPath string) error {
	data, err := ReadSeed(jsonPath)
	if err != nil {
		return err
	}

	return db.Tx(ctx, conn, func(tx *sqlx.Tx) error {
		for _, o := range data.Organizations {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO organizations (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name;
			`, o.ID, o.Name); err != nil {
				return fmt.Errorf("seed: insert organization %q: %w", o.ID, err)
			}
		}

		for _, u := range data.Users {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, organization_id, name, phone, role) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET organization_id = EXCLUDED.organization_id,
				name = EXCLUDED.name,
				phone = EXCLUDED.phone,
				role = EXCLUDED.role;
			`, u.ID, u.OrganizationID, u.Name, u.Phone, u.Role); err != nil {
				return fmt.Errorf("seed: insert user %q: %w", u.ID, err)
			}
		}

		for _, o := range data.Orders {
			var courierID *string
			if o.CourierID != "" {
				courierID = &o.CourierID
			}
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, organization_id, courier_id, address, client_name, status, lat, lon)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE
			SET courier_id = EXCLUDED.courier_id,
				address = EXCLUDED.address,
				client_name = EXCLUDED.client_name,
				status = EXCLUDED.status,
				lat = EXCLUDED.lat,
				lon = EXCLUDED.lon;
			`, o.ID, o.OrganizationID, courierID, o.Address, o.ClientName, o.Status, o.Lat, o.Lon); err != nil {
				return fmt.Errorf("seed: insert order %q: %w", o.ID, err)
			}
		}

		return nil
	})
}
