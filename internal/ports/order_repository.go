package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"farm-delivery-service/internal/domain"
)

// Port: boundary for reading and batching consumer orders.
type OrderRepository interface {
	// Retrieve all pending orders for a delivery date.
	ListPendingByDate(ctx context.Context, date time.Time) ([]*domain.Order, error)

	// Link an order to its batch: set status confirmed, batch reference,
	// and box code in one conditional update guarded on pending status.
	ConfirmAndAssign(ctx context.Context, orderID, batchID uuid.UUID, boxCode string) error

	// Compensation: detach every order from a batch and return it to
	// pending with batch reference and box code cleared.
	ResetBatchAssignment(ctx context.Context, batchID uuid.UUID) error
}
