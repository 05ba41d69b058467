package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"farm-delivery-service/internal/domain"
)

// Postgres-backed implementation of the OrderRepository port.
type PgOrderRepository struct{ DB *sql.DB }

func NewPgOrderRepository(db *sql.DB) *PgOrderRepository {
	return &PgOrderRepository{DB: db}
}

// ListPendingByDate returns all pending orders for a delivery date, ordered
// by order id so repeated runs see the same input order.
func (r *PgOrderRepository) ListPendingByDate(ctx context.Context, date time.Time) ([]*domain.Order, error) {
	if r.DB == nil {
		return nil, errors.New("order repository: DB is nil")
	}

	query := `
	SELECT
		order_id,
		consumer_id,
		delivery_date,
		status,
		street_address,
		zip_code,
		batch_id,
		box_code
	FROM orders
	WHERE status = $1 AND delivery_date = $2
	ORDER BY order_id;
	`
	rows, err := r.DB.QueryContext(ctx, query, domain.OrderStatusPending, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list pending orders: query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 64)
	for rows.Next() {
		var (
			o       domain.Order
			status  string
			batchID sql.NullString
			boxCode sql.NullString
		)
		if err := rows.Scan(
			&o.OrderID, &o.ConsumerID, &o.DeliveryDate, &status,
			&o.StreetAddress, &o.ZipCode, &batchID, &boxCode,
		); err != nil {
			return nil, fmt.Errorf("list pending orders: scan row: %w", err)
		}
		o.Status = domain.OrderStatus(status)

		if batchID.Valid {
			id, err := uuid.Parse(batchID.String)
			if err != nil {
				return nil, fmt.Errorf("list pending orders: parse batch_id %q: %w", batchID.String, err)
			}
			o.BatchID = &id
		}
		if boxCode.Valid {
			bc := boxCode.String
			o.BoxCode = &bc
		}

		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending orders: row iteration: %w", err)
	}

	return orders, nil
}

// ConfirmAndAssign flips one order from pending to confirmed with its batch
// reference and box code. The pending guard keeps a concurrently cancelled
// or already-batched order from being captured.
func (r *PgOrderRepository) ConfirmAndAssign(ctx context.Context, orderID, batchID uuid.UUID, boxCode string) error {
	if r.DB == nil {
		return errors.New("order repository: DB is nil")
	}

	query := `
	UPDATE orders
	SET status = $1, batch_id = $2, box_code = $3
	WHERE order_id = $4 AND status = $5;
	`
	res, err := r.DB.ExecContext(ctx, query,
		domain.OrderStatusConfirmed, batchID.String(), boxCode,
		orderID.String(), domain.OrderStatusPending,
	)
	if err != nil {
		return fmt.Errorf("confirm order %s: %w", orderID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("confirm order %s: rows affected: %w", orderID, err)
	}
	if affected == 0 {
		return fmt.Errorf("confirm order %s: order is no longer pending", orderID)
	}

	return nil
}

// ResetBatchAssignment is the compensating update: every order attached to
// the batch returns to pending with batch reference and box code cleared.
func (r *PgOrderRepository) ResetBatchAssignment(ctx context.Context, batchID uuid.UUID) error {
	if r.DB == nil {
		return errors.New("order repository: DB is nil")
	}

	query := `
	UPDATE orders
	SET status = $1, batch_id = NULL, box_code = NULL
	WHERE batch_id = $2;
	`
	if _, err := r.DB.ExecContext(ctx, query, domain.OrderStatusPending, batchID.String()); err != nil {
		return fmt.Errorf("reset orders for batch %s: %w", batchID, err)
	}

	return nil
}
