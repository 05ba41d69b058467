package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// InitSchema creates the delivery tables. Statements are idempotent so the
// tool can run against an existing database.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createOrders := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id UUID PRIMARY KEY,
		consumer_id UUID NOT NULL,
		delivery_date DATE NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		street_address TEXT NOT NULL,
		zip_code TEXT NOT NULL DEFAULT '',
		batch_id UUID,
		box_code TEXT
	);
	`

	createBatches := `
	CREATE TABLE IF NOT EXISTS delivery_batches (
		batch_id UUID PRIMARY KEY,
		delivery_date DATE NOT NULL,
		batch_number INTEGER NOT NULL,
		zip_codes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		driver_id UUID,
		estimated_duration_minutes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (delivery_date, batch_number)
	);
	`

	createStops := `
	CREATE TABLE IF NOT EXISTS batch_stops (
		stop_id UUID PRIMARY KEY,
		batch_id UUID NOT NULL REFERENCES delivery_batches(batch_id) ON DELETE CASCADE,
		order_id UUID NOT NULL,
		seq INTEGER NOT NULL,
		street_address TEXT NOT NULL,
		zip_code TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION,
		lon DOUBLE PRECISION,
		status TEXT NOT NULL DEFAULT 'pending',
		estimated_arrival TIMESTAMPTZ NOT NULL,
		actual_arrival TIMESTAMPTZ,
		UNIQUE (batch_id, seq)
	);
	`

	createRoutes := `
	CREATE TABLE IF NOT EXISTS routes (
		route_id UUID PRIMARY KEY,
		batch_id UUID NOT NULL UNIQUE REFERENCES delivery_batches(batch_id) ON DELETE CASCADE,
		total_distance_km DOUBLE PRECISION NOT NULL,
		total_duration_minutes INTEGER NOT NULL,
		method TEXT NOT NULL,
		geometry TEXT
	);
	`

	createOrderIndex := `
	CREATE INDEX IF NOT EXISTS idx_orders_status_date
	ON orders(status, delivery_date);
	`

	createBatchIndex := `
	CREATE INDEX IF NOT EXISTS idx_delivery_batches_date_status
	ON delivery_batches(delivery_date, status);
	`

	statements := []string{
		createOrders,
		createBatches,
		createStops,
		createRoutes,
		createOrderIndex,
		createBatchIndex,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type OrderSeed struct {
	OrderID       string `json:"order_id"`
	ConsumerID    string `json:"consumer_id"`
	DeliveryDate  string `json:"delivery_date"`
	StreetAddress string `json:"street_address"`
	ZipCode       string `json:"zip_code"`
}

// SeedOrdersFromJSON loads pending demo orders for local runs. Existing
// rows are replaced so the seed file stays the source of truth.
func SeedOrdersFromJSON(db *sql.DB, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed orders: read %q: %w", jsonPath, err)
	}

	var data []OrderSeed
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("seed orders: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.OrderID) == "" || strings.TrimSpace(item.ConsumerID) == "" {
			return fmt.Errorf("seed orders: item %d: order_id and consumer_id are required", i+1)
		}
		if strings.TrimSpace(item.StreetAddress) == "" {
			return fmt.Errorf("seed orders: item %d: street_address cannot be empty", i+1)
		}
		if strings.TrimSpace(item.DeliveryDate) == "" {
			return fmt.Errorf("seed orders: item %d: delivery_date cannot be empty", i+1)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO orders (order_id, consumer_id, delivery_date, status, street_address, zip_code)
	VALUES ($1, $2, $3, 'pending', $4, $5)
	ON CONFLICT (order_id) DO UPDATE
	SET delivery_date = EXCLUDED.delivery_date,
		status = 'pending',
		street_address = EXCLUDED.street_address,
		zip_code = EXCLUDED.zip_code,
		batch_id = NULL,
		box_code = NULL;
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed orders: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range data {
		if _, err := stmt.Exec(o.OrderID, o.ConsumerID, o.DeliveryDate, o.StreetAddress, o.ZipCode); err != nil {
			return fmt.Errorf("seed orders: insert order_id=%s: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed orders: commit tx: %w", err)
	}

	return nil
}
