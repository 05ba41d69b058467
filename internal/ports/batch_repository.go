package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"farm-delivery-service/internal/domain"
)

// Port: boundary for persisting delivery batches, their stops and routes,
// and for the atomic claim handoff to a driver.
type BatchRepository interface {
	// Next batch number for a date: max existing + 1, starting at 1.
	NextBatchNumber(ctx context.Context, date time.Time) (int, error)

	CreateBatch(ctx context.Context, batch *domain.DeliveryBatch) error
	CreateStops(ctx context.Context, stops []domain.BatchStop) error
	CreateRoute(ctx context.Context, route *domain.Route) error

	// Compensation: remove a partially written batch; stops and route go
	// with it (FK cascade).
	DeleteBatch(ctx context.Context, batchID uuid.UUID) error

	ListByDate(ctx context.Context, date time.Time) ([]*domain.DeliveryBatch, error)

	// Exists reports whether any batch row has this id, regardless of status.
	Exists(ctx context.Context, batchID uuid.UUID) (bool, error)

	// Claim performs the single conditional update that hands a pending,
	// unassigned batch to a driver. Returns true iff exactly this call won
	// the row; false means the predicate matched nothing.
	Claim(ctx context.Context, batchID, driverID uuid.UUID) (bool, error)
}
