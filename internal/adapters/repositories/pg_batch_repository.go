package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"farm-delivery-service/internal/domain"
)

// Postgres-backed implementation of the BatchRepository port.
//
// The claim path is the only genuinely contended write in the system and
// relies on its WHERE predicate, not locks: under concurrent claims the
// database serializes the updates and exactly one matches the pending,
// driverless row.
type PgBatchRepository struct{ DB *sql.DB }

func NewPgBatchRepository(db *sql.DB) *PgBatchRepository {
	return &PgBatchRepository{DB: db}
}

const dateLayout = "2006-01-02"

// NextBatchNumber allocates the next batch number for a date:
// max existing + 1, starting at 1.
func (r *PgBatchRepository) NextBatchNumber(ctx context.Context, date time.Time) (int, error) {
	if r.DB == nil {
		return 0, errors.New("batch repository: DB is nil")
	}

	query := `
	SELECT COALESCE(MAX(batch_number), 0) + 1
	FROM delivery_batches
	WHERE delivery_date = $1;
	`
	var next int
	if err := r.DB.QueryRowContext(ctx, query, date.Format(dateLayout)).Scan(&next); err != nil {
		return 0, fmt.Errorf("next batch number: %w", err)
	}

	return next, nil
}

func (r *PgBatchRepository) CreateBatch(ctx context.Context, batch *domain.DeliveryBatch) error {
	if r.DB == nil {
		return errors.New("batch repository: DB is nil")
	}

	query := `
	INSERT INTO delivery_batches (
		batch_id, delivery_date, batch_number, zip_codes,
		status, driver_id, estimated_duration_minutes
	)
	VALUES ($1, $2, $3, $4, $5, NULL, $6);
	`
	_, err := r.DB.ExecContext(ctx, query,
		batch.BatchID.String(),
		batch.DeliveryDate.Format(dateLayout),
		batch.BatchNumber,
		strings.Join(batch.ZipCodes, ","),
		string(batch.Status),
		batch.EstimatedDurationMinutes,
	)
	if err != nil {
		return fmt.Errorf("create batch %s: %w", batch.BatchID, err)
	}

	return nil
}

func (r *PgBatchRepository) CreateStops(ctx context.Context, stops []domain.BatchStop) error {
	if r.DB == nil {
		return errors.New("batch repository: DB is nil")
	}
	if len(stops) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create stops: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO batch_stops (
		stop_id, batch_id, order_id, seq, street_address, zip_code,
		lat, lon, status, estimated_arrival
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`)
	if err != nil {
		return fmt.Errorf("create stops: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range stops {
		var lat, lon any
		if s.Coords != nil {
			lat, lon = s.Coords.Lat, s.Coords.Lon
		}

		if _, err := stmt.ExecContext(ctx,
			s.StopID.String(), s.BatchID.String(), s.OrderID.String(), s.Seq,
			s.StreetAddress, s.ZipCode, lat, lon, s.Status, s.EstimatedArrival,
		); err != nil {
			return fmt.Errorf("create stops: insert seq %d: %w", s.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create stops: commit tx: %w", err)
	}

	return nil
}

func (r *PgBatchRepository) CreateRoute(ctx context.Context, route *domain.Route) error {
	if r.DB == nil {
		return errors.New("batch repository: DB is nil")
	}

	query := `
	INSERT INTO routes (
		route_id, batch_id, total_distance_km, total_duration_minutes,
		method, geometry
	)
	VALUES ($1, $2, $3, $4, $5, $6);
	`
	var geometry any
	if route.Geometry != nil {
		geometry = *route.Geometry
	}

	_, err := r.DB.ExecContext(ctx, query,
		route.RouteID.String(), route.BatchID.String(),
		route.TotalDistanceKm, route.TotalDurationMinutes,
		string(route.Method), geometry,
	)
	if err != nil {
		return fmt.Errorf("create route for batch %s: %w", route.BatchID, err)
	}

	return nil
}

// DeleteBatch removes a partially written batch; batch_stops and routes
// rows follow via ON DELETE CASCADE. Deletes cannot race a claim because a
// batch only becomes claimable after its cluster commits completely.
func (r *PgBatchRepository) DeleteBatch(ctx context.Context, batchID uuid.UUID) error {
	if r.DB == nil {
		return errors.New("batch repository: DB is nil")
	}

	if _, err := r.DB.ExecContext(ctx,
		`DELETE FROM delivery_batches WHERE batch_id = $1;`, batchID.String(),
	); err != nil {
		return fmt.Errorf("delete batch %s: %w", batchID, err)
	}

	return nil
}

func (r *PgBatchRepository) ListByDate(ctx context.Context, date time.Time) ([]*domain.DeliveryBatch, error) {
	if r.DB == nil {
		return nil, errors.New("batch repository: DB is nil")
	}

	query := `
	SELECT
		batch_id, delivery_date, batch_number, zip_codes,
		status, driver_id, estimated_duration_minutes, created_at
	FROM delivery_batches
	WHERE delivery_date = $1
	ORDER BY batch_number;
	`
	rows, err := r.DB.QueryContext(ctx, query, date.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list batches: query delivery_batches table: %w", err)
	}
	defer rows.Close()

	batches := make([]*domain.DeliveryBatch, 0, 16)
	for rows.Next() {
		var (
			b        domain.DeliveryBatch
			zipCodes string
			status   string
			driverID sql.NullString
		)
		if err := rows.Scan(
			&b.BatchID, &b.DeliveryDate, &b.BatchNumber, &zipCodes,
			&status, &driverID, &b.EstimatedDurationMinutes, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("list batches: scan row: %w", err)
		}
		b.Status = domain.BatchStatus(status)
		if zipCodes != "" {
			b.ZipCodes = strings.Split(zipCodes, ",")
		}
		if driverID.Valid {
			id, err := uuid.Parse(driverID.String)
			if err != nil {
				return nil, fmt.Errorf("list batches: parse driver_id %q: %w", driverID.String, err)
			}
			b.DriverID = &id
		}

		batches = append(batches, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list batches: row iteration: %w", err)
	}

	return batches, nil
}

func (r *PgBatchRepository) Exists(ctx context.Context, batchID uuid.UUID) (bool, error) {
	if r.DB == nil {
		return false, errors.New("batch repository: DB is nil")
	}

	var one int
	err := r.DB.QueryRowContext(ctx,
		`SELECT 1 FROM delivery_batches WHERE batch_id = $1;`, batchID.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("batch exists %s: %w", batchID, err)
	}

	return true, nil
}

// Claim is the atomic compare-and-swap handoff. The predicate is the whole
// concurrency control: no advisory locks, no version columns. Zero rows
// affected means another driver won or the batch left pending.
func (r *PgBatchRepository) Claim(ctx context.Context, batchID, driverID uuid.UUID) (bool, error) {
	if r.DB == nil {
		return false, errors.New("batch repository: DB is nil")
	}

	query := `
	UPDATE delivery_batches
	SET status = $1, driver_id = $2
	WHERE batch_id = $3 AND status = $4 AND driver_id IS NULL;
	`
	res, err := r.DB.ExecContext(ctx, query,
		domain.BatchStatusAssigned, driverID.String(),
		batchID.String(), domain.BatchStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("claim batch %s: %w", batchID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim batch %s: rows affected: %w", batchID, err)
	}

	return affected == 1, nil
}
