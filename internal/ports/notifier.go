package ports

import (
	"context"

	"github.com/google/uuid"
)

// OrderConfirmedEvent is published once an order has been placed into a
// batch, so downstream consumers can notify the consumer without querying
// the primary database.
type OrderConfirmedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	ConsumerID       uuid.UUID `json:"consumer_id"`
	BatchID          uuid.UUID `json:"batch_id"`
	BoxCode          string    `json:"box_code"`
	DeliveryDate     string    `json:"delivery_date"`
	EstimatedArrival string    `json:"estimated_arrival"`
}

// Notifier dispatches order-confirmed events. Calls are fire-and-forget:
// errors are for logging only and must never fail batch generation.
type Notifier interface {
	OrderConfirmed(ctx context.Context, event OrderConfirmedEvent) error
}
